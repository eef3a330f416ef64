package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Rescisão", "rescisao"},
		{"INSATISFAÇÃO", "insatisfacao"},
		{"péssimo", "pessimo"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), tt.in)
	}
}

func TestKeywordMatcher_Find(t *testing.T) {
	m := NewKeywordMatcher([]string{"rescisão", "Cancelar", "", "cancelar", "procon"})

	assert.Equal(t, []string{"rescisão"}, m.Find("Vamos pedir a RESCISAO amanhã"))
	assert.Equal(t, []string{"Cancelar", "procon"}, m.Find("vou cancelar", "e abrir reclamação no Procon"))
	assert.Empty(t, m.Find("tudo ótimo por aqui"))
}

func TestKeywordMatcher_Nil(t *testing.T) {
	var m *KeywordMatcher
	assert.Nil(t, m.Find("cancelar"))
	assert.Nil(t, NewKeywordMatcher(nil).Find("cancelar"))
}
