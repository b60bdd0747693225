package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/ledger-core/internal/ledger"
)

type stubReconciler struct {
	report *ledger.ReconcileReport
	err    error
}

func (s stubReconciler) Reconcile(context.Context) (*ledger.ReconcileReport, error) {
	return s.report, s.err
}

func TestRunReconcile(t *testing.T) {
	t.Run("balanced", func(t *testing.T) {
		var out bytes.Buffer
		err := runReconcile(context.Background(), stubReconciler{report: &ledger.ReconcileReport{Checked: 3}}, &out)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "3 accounts checked")
	})

	t.Run("mismatch fails", func(t *testing.T) {
		var out bytes.Buffer
		report := &ledger.ReconcileReport{
			Checked: 2,
			Mismatches: []ledger.Mismatch{
				{AccountNumber: "SAV000000007", Balance: 500, Credits: 1000, Debits: 400, Entries: 3, LastBalanceAfter: 600},
			},
		}
		err := runReconcile(context.Background(), stubReconciler{report: report}, &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2")
		assert.Contains(t, out.String(), "SAV000000007")
		assert.Contains(t, out.String(), "ENTRIES")
	})

	t.Run("query error", func(t *testing.T) {
		err := runReconcile(context.Background(), stubReconciler{err: errors.New("conn refused")}, &bytes.Buffer{})
		require.Error(t, err)
	})
}

func TestRootCmd_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "version"})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
