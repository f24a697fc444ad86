package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chantier-rapports/internal/auth"
	"chantier-rapports/internal/storage"
	"chantier-rapports/internal/storage/memory"
	"chantier-rapports/internal/storage/provisioner"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func useMemoryStorage(t *testing.T) *memory.Storage {
	t.Helper()

	store := memory.NewMemoryStorage()
	retry := provisioner.RetryPolicy{Attempts: 1, BaseDelay: time.Millisecond, Multiplier: 2}
	previous := openStorage
	openStorage = func(ctx context.Context) (*storage.StorageService, func() error, error) {
		prov := provisioner.New(store, provisioner.Config{Retry: retry, Timeout: time.Second})
		return storage.NewStorageService(store, prov, retry), store.Close, nil
	}
	t.Cleanup(func() { openStorage = previous })

	return store
}

func TestRequiredFlagsErrors(t *testing.T) {
	tests := []struct {
		name    string
		cmd     func() *cobra.Command
		args    []string
		wantErr string
	}{
		{name: "path missing chantier", cmd: newPathCmd, args: []string{"--type", "incident", "--date", "2024-12-05"}, wantErr: "required flag --chantier not set"},
		{name: "path missing type", cmd: newPathCmd, args: []string{"--chantier", "Tour A", "--date", "2024-12-05"}, wantErr: "required flag --type not set"},
		{name: "title missing date", cmd: newTitleCmd, args: []string{"--chantier", "Tour A", "--type", "incident"}, wantErr: "required flag --date not set"},
		{name: "token missing subject", cmd: newTokenCmd, args: []string{}, wantErr: "required flag --subject not set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tt.cmd()
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SetArgs(tt.args)
			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPathAndTitle(t *testing.T) {
	out, err := execute(t, "path", "--chantier", "Résidence Les Pins #3", "--type", "intervention", "--date", "2024-12-05")
	require.NoError(t, err)
	assert.Equal(t, "RAPPORT/PDF/Rsidence_Les_Pins_3/intervention/Rsidence_Les_Pins_3_intervention_20241205.pdf\n", out)

	out, err = execute(t, "title", "--chantier", "Tour A", "--type", "incident", "--date", "2024-12-05")
	require.NoError(t, err)
	assert.Equal(t, "Tour_A/Incident/20241205\n", out)

	out, err = execute(t, "path", "--json", "--chantier", "Tour A", "--type", "incident", "--date", "2024-12-05")
	require.NoError(t, err)
	assert.Contains(t, out, `"photo_dir": "RAPPORT/PHOTOS/Tour_A/incident/20241205"`)

	_, err = execute(t, "path", "--chantier", "###", "--type", "incident", "--date", "2024-12-05")
	assert.Error(t, err)

	_, err = execute(t, "path", "--chantier", "Tour A", "--type", "incident", "--date", "05/12/2024")
	assert.Error(t, err)
}

func TestParseTitleCmd(t *testing.T) {
	out, err := execute(t, "parse-title", "Tour_A/Incident/20241205")
	require.NoError(t, err)
	assert.Contains(t, out, "chantier: Tour_A")
	assert.Contains(t, out, "date:     20241205")

	_, err = execute(t, "parse-title", "Tour_A/20241205")
	assert.Error(t, err)
}

func TestProvisionAndTree(t *testing.T) {
	useMemoryStorage(t)

	out, err := execute(t, "provision", "--chantier", "Tour A", "--type", "incident", "--date", "2024-12-05")
	require.NoError(t, err)
	assert.Contains(t, out, "RAPPORT/PDF/Tour_A/incident: ok")
	assert.Contains(t, out, "RAPPORT/PHOTOS/Tour_A/incident/20241205: ok")

	out, err = execute(t, "provision", "--dir", "/RAPPORT/PDF/Ecole/")
	require.NoError(t, err)
	assert.Equal(t, "RAPPORT/PDF/Ecole: ok\n", out)

	out, err = execute(t, "tree")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "RAPPORT/PDF/Tour_A/incident/")
	assert.Contains(t, lines, "RAPPORT/PDF/Ecole/")

	_, err = execute(t, "tree", "--prefix", "../etc")
	assert.Error(t, err)
}

func TestTokenCmd(t *testing.T) {
	out, err := execute(t, "token", "--subject", "u1", "--name", "Jeanne", "--role", auth.RoleAgent, "--secret", "s3cret")
	require.NoError(t, err)

	claims, err := auth.NewTokenManager("s3cret", time.Hour).ParseToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "Jeanne", claims.Name)
	assert.Equal(t, auth.RoleAgent, claims.Role)

	_, err = execute(t, "token", "--subject", "u1", "--role", "chef", "--secret", "s3cret")
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "")
	_, err = execute(t, "token", "--subject", "u1")
	assert.Error(t, err)
}
