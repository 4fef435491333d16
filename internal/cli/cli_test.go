package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// isolateEnv runs the test in an empty directory with no WhatsApp settings.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range []string{"CONFIG_PATH", "WHATSAPP_TOKEN", "WHATSAPP_PHONE_ID", "OWNER_PHONE", "STORE_DRIVER", "KAFKA_ENABLED"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestSanitize_Stdin(t *testing.T) {
	out, err := execute(t, "Renault Clio\n\n  2015\t diesel\n", "sanitize")
	require.NoError(t, err)
	assert.Equal(t, "Renault Clio | 2015 | diesel\n", out)
}

func TestSanitize_DashReadsStdin(t *testing.T) {
	out, err := execute(t, "a\nb", "sanitize", "-")
	require.NoError(t, err)
	assert.Equal(t, "a | b\n", out)
}

func TestSanitize_MaxLenAndSeparator(t *testing.T) {
	out, err := execute(t, "Linha1\nLinha2", "sanitize", "--max-len", "10")
	require.NoError(t, err)
	assert.Equal(t, "Linha1...\n", out)

	out, err = execute(t, "a\r\nb", "sanitize", "--separator", " / ")
	require.NoError(t, err)
	assert.Equal(t, "a / b\n", out)
}

func TestSanitize_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "details.txt")
	require.NoError(t, os.WriteFile(path, []byte("Carro: Seat Ibiza\nAno: 2010\n"), 0o600))

	out, err := execute(t, "", "sanitize", path)
	require.NoError(t, err)
	assert.Equal(t, "Carro: Seat Ibiza | Ano: 2010\n", out)
}

func TestSanitize_Errors(t *testing.T) {
	_, err := execute(t, "", "sanitize", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	_, err = execute(t, "x", "sanitize", "--max-len", "-1")
	assert.ErrorContains(t, err, "--max-len")

	_, err = execute(t, "x", "sanitize", "a", "b")
	assert.Error(t, err)
}

func TestNotify_DryRun(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "details.txt")
	require.NoError(t, os.WriteFile(path, []byte("Carro: Fiat Punto\nCor: azul"), 0o600))

	out, err := execute(t, "", "notify", "--dry-run", "--name", "  Ana  ", "--details-file", path)
	require.NoError(t, err)

	var tpl struct {
		Name       string                `json:"name"`
		Language   struct{ Code string } `json:"language"`
		Components []struct {
			Parameters []struct{ Text string } `json:"parameters"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &tpl))
	assert.Equal(t, "info_update2", tpl.Name)
	assert.Equal(t, "pt_PT", tpl.Language.Code)
	require.Len(t, tpl.Components, 1)
	require.Len(t, tpl.Components[0].Parameters, 2)
	assert.Equal(t, "Ana", tpl.Components[0].Parameters[0].Text)
	assert.Equal(t, "Carro: Fiat Punto | Cor: azul", tpl.Components[0].Parameters[1].Text)
}

func TestNotify_RequiresCredentials(t *testing.T) {
	isolateEnv(t)

	_, err := execute(t, "", "notify")
	assert.ErrorIs(t, err, errNotifyDisabled)
}

func TestNotify_Sends(t *testing.T) {
	isolateEnv(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v22.0/555/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.TEST"}]}`))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("WHATSAPP_TOKEN", "tok")
	t.Setenv("WHATSAPP_PHONE_ID", "555")
	t.Setenv("OWNER_PHONE", "912345678")
	t.Setenv("WHATSAPP_BASE_URL", srv.URL)

	out, err := execute(t, "", "notify", "--name", "Rui")
	require.NoError(t, err)
	assert.Equal(t, "wamid.TEST\n", out)
}

func TestRoot_UnknownCommand(t *testing.T) {
	_, err := execute(t, "", "bogus")
	assert.Error(t, err)
}
