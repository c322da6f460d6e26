// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// =============================================================================
// MODE TYPE
// =============================================================================

// Mode selects the response format the assistant should use.
type Mode string

const (
	ModeChat        Mode = "Chat"
	ModeDocument    Mode = "Document"
	ModeCode        Mode = "Code"
	ModeExplanation Mode = "Explanation"
)

// AllModes lists every mode in display order.
var AllModes = []Mode{ModeChat, ModeDocument, ModeCode, ModeExplanation}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := ModeInstructions[m]
	return ok
}

// ParseMode resolves a case-insensitive mode name.
// Unknown names fall back to ModeChat.
func ParseMode(s string) Mode {
	for _, m := range AllModes {
		if strings.EqualFold(s, string(m)) {
			return m
		}
	}
	return ModeChat
}

// =============================================================================
// PERSONA TYPE
// =============================================================================

// Persona selects the assistant's personality and expertise slant.
type Persona string

const (
	PersonaGeneral   Persona = "General"
	PersonaDeveloper Persona = "Developer"
	PersonaDesigner  Persona = "Designer"
	PersonaManager   Persona = "Manager"
	PersonaAnalyst   Persona = "Analyst"
	PersonaSavage    Persona = "Savage"
)

// AllPersonas lists every persona in display order.
var AllPersonas = []Persona{
	PersonaGeneral,
	PersonaDeveloper,
	PersonaDesigner,
	PersonaManager,
	PersonaAnalyst,
	PersonaSavage,
}

// String returns the string representation of the persona.
func (p Persona) String() string {
	return string(p)
}

// Valid reports whether p is a known persona.
func (p Persona) Valid() bool {
	_, ok := SystemPrompts[p]
	return ok
}

// ParsePersona resolves a case-insensitive persona name.
// Unknown names fall back to PersonaGeneral.
func ParsePersona(s string) Persona {
	for _, p := range AllPersonas {
		if strings.EqualFold(s, string(p)) {
			return p
		}
	}
	return PersonaGeneral
}

// =============================================================================
// PROMPT TABLES
// =============================================================================

// SystemPrompts maps each persona to its base system prompt.
var SystemPrompts = map[Persona]string{
	PersonaGeneral:   "You are Delta, a helpful and intelligent AI assistant.",
	PersonaDeveloper: "You are Delta, an expert senior software engineer. Provide clean, efficient, and well-documented code. Explain technical concepts clearly.",
	PersonaDesigner:  "You are Delta, a creative UI/UX designer. Focus on aesthetics, user experience, and modern design trends in your responses.",
	PersonaManager:   "You are Delta, an experienced product manager. Focus on strategy, roadmaps, user stories, and business value.",
	PersonaAnalyst:   "You are Delta, a data analyst. Focus on data-driven insights, statistics, and logical reasoning.",
	PersonaSavage:    "You are Delta, a brutally honest and sarcastic AI. You answer questions correctly, but with a savage, witty, and slightly arrogant tone. Don't be afraid to roast the user lightly.",
}

// ModeInstructions maps each mode to the instruction appended to the
// persona prompt.
var ModeInstructions = map[Mode]string{
	ModeChat:        "Respond conversationally.",
	ModeDocument:    "Format your response as a well-structured document with headings, bullet points, and professional formatting.",
	ModeCode:        "Focus primarily on code. Provide code blocks with brief explanations.",
	ModeExplanation: "Explain the concept in depth, breaking it down simply as if teaching a student.",
}

// SystemInstruction builds the full system instruction for a persona and
// mode combination.
func SystemInstruction(p Persona, m Mode) string {
	base, ok := SystemPrompts[p]
	if !ok {
		base = SystemPrompts[PersonaGeneral]
	}
	instr, ok := ModeInstructions[m]
	if !ok {
		instr = ModeInstructions[ModeChat]
	}
	return base + "\n\nMode: " + instr
}
