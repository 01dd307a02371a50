package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeModelName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"meta-llama/Llama-3.1-8B-Instruct", "meta-llama_Llama-3.1-8B-Instruct"},
		{`org\model:v2`, "org_model_v2"},
		{"plain-model", "plain-model"},
		{"./weird/", "weird"},
		{`a?b*c"d`, "a_b_c_d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeModelName(tt.in))
	}
}
