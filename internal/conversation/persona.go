package conversation

import (
	"errors"
	"fmt"
)

// ErrUnknownPersona rejects persona names outside the closed set. There is no
// silent default; defaulting would drift the prompt without the caller knowing.
var ErrUnknownPersona = errors.New("unknown persona")

// Persona selects the system instruction sent with every prompt.
type Persona int

const (
	GeneralAssistant Persona = iota
	Academic
	Witty
)

// instructions is the single definition site for persona prompts.
var instructions = map[Persona]string{
	GeneralAssistant: "You are a general assistant AI chatbot here to assist the user based on " +
		"the documents they uploaded and the analysis context provided. Please assist the user " +
		"to the best of your knowledge based on the provided context and their input.",
	Academic: "You are an academic assistant AI chatbot here to assist the user based on the " +
		"academic documents they uploaded and the analysis context provided. Respond in as " +
		"academic a way as possible, with an academic audience in mind, drawing on outside " +
		"academic knowledge where it helps.",
	Witty: "You are a witty assistant AI chatbot here to assist the user based on the documents " +
		"they uploaded and the analysis context provided. Be lighthearted, joking and original, " +
		"while still answering the original question.",
}

var personaNames = map[string]Persona{
	"general assistant": GeneralAssistant,
	"academic":          Academic,
	"witty":             Witty,
}

// ParsePersona maps a persona name to its Persona, rejecting unknown names.
func ParsePersona(name string) (Persona, error) {
	p, ok := personaNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPersona, name)
	}
	return p, nil
}

func (p Persona) String() string {
	for name, v := range personaNames {
		if v == p {
			return name
		}
	}
	return fmt.Sprintf("persona(%d)", int(p))
}

// Instruction returns the system instruction for the persona.
func (p Persona) Instruction() string {
	return instructions[p]
}
