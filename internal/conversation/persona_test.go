package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePersona(t *testing.T) {
	for name, want := range map[string]Persona{
		"general assistant": GeneralAssistant,
		"academic":          Academic,
		"witty":             Witty,
	} {
		got, err := ParsePersona(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, name, got.String())
	}
}

func TestParsePersona_UnknownRejected(t *testing.T) {
	for _, name := range []string{"", "pirate", "General Assistant", "WITTY"} {
		_, err := ParsePersona(name)
		assert.ErrorIs(t, err, ErrUnknownPersona, "name %q must not silently default", name)
	}
}

func TestPersona_InstructionsDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range []Persona{GeneralAssistant, Academic, Witty} {
		inst := p.Instruction()
		require.NotEmpty(t, inst)
		assert.False(t, seen[inst], "instructions must differ per persona")
		seen[inst] = true
	}
}
