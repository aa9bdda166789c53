// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/go-scoper/pkg/scoper"
)

var sample = []scoper.Symbol{
	{Kind: "namespace", Name: `Psr\Log`, Replacement: `Acme\Psr\Log`, Files: []string{"psr/log/src/LoggerInterface.php"}},
	{Kind: "class", Name: "Kept", Files: []string{"acme/kept/Kept.php"}},
}

func TestWriteSymbols_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSymbols(&buf, sample, "json"))
	assert.Contains(t, buf.String(), `"name": "Psr\\Log"`)
	assert.Contains(t, buf.String(), `"replacement": "Acme\\Psr\\Log"`)
}

func TestWriteSymbols_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSymbols(&buf, sample, "yaml"))
	assert.Contains(t, buf.String(), "- kind: namespace\n")
	assert.Contains(t, buf.String(), "replacement: Acme\\Psr\\Log\n")
	assert.NotContains(t, buf.String(), "replacement: \"\"")
}

func TestWriteSymbols_UnknownFormat(t *testing.T) {
	require.Error(t, writeSymbols(&bytes.Buffer{}, sample, "xml"))
}

func TestRenamedOnly(t *testing.T) {
	syms := append([]scoper.Symbol(nil), sample...)
	got := renamedOnly(syms)
	require.Len(t, got, 1)
	assert.Equal(t, `Psr\Log`, got[0].Name)
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)
	assert.Equal(t, "go-scoper "+version+"\n", buf.String())
}
