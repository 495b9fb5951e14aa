package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	allowed := []string{"-c", "-config"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "separate value form",
			args: []string{"-c", "conf.json", "-e", ":9090"},
			want: []string{"-c", "conf.json"},
		},
		{
			name: "equals form",
			args: []string{"-config=alt.json", "-e", ":9090"},
			want: []string{"-config=alt.json"},
		},
		{
			name: "order preserved across forms",
			args: []string{"-config=first.json", "-c", "second.json"},
			want: []string{"-config=first.json", "-c", "second.json"},
		},
		{
			name: "unrelated flags and positionals dropped",
			args: []string{"-e", ":9090", "-d=dsn", "positional"},
			want: []string{},
		},
		{
			name: "trailing flag without value kept",
			args: []string{"-c"},
			want: []string{"-c"},
		},
		{
			name: "dash token is not consumed as a value",
			args: []string{"-c", "-config=alt.json"},
			want: []string{"-c", "-config=alt.json"},
		},
		{
			name: "repeated flag kept each time",
			args: []string{"-c", "one.json", "-c", "two.json"},
			want: []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name: "empty input yields empty non-nil slice",
			args: []string{},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short flag", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/etc/pennywise.json"}
		assert.Equal(t, "/etc/pennywise.json", JsonConfigFlags())
	})

	t.Run("long flag", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", "/etc/other.json"}
		assert.Equal(t, "/etc/other.json", JsonConfigFlags())
	})

	t.Run("absent flag", func(t *testing.T) {
		os.Args = []string{"testbin", "-e", ":9090"}
		assert.Empty(t, JsonConfigFlags())
	})

	t.Run("last occurrence wins", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/a.json", "-config", "/b.json"}
		assert.Equal(t, "/b.json", JsonConfigFlags())
	})
}
