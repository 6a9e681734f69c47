package app

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type fakeMigrator struct {
	version  uint
	err      error
	closeErr error
	closed   int
}

func (m *fakeMigrator) Version() (uint, bool, error) {
	return m.version, false, m.err
}

func (m *fakeMigrator) Close() (error, error) {
	m.closed++
	return nil, m.closeErr
}

func TestReportSchemaClosesMigrator(t *testing.T) {
	testCases := []struct {
		name     string
		migrator *fakeMigrator
		level    logrus.Level
		message  string
	}{
		{"ready", &fakeMigrator{version: 2}, logrus.InfoLevel, "database schema ready"},
		{"no version", &fakeMigrator{err: errors.New("no migration")}, logrus.WarnLevel, ""},
		{"close fails", &fakeMigrator{version: 2, closeErr: errors.New("boom")}, logrus.WarnLevel, "unable to close migrator"},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			log, hook := logtest.NewNullLogger()
			reportSchema(log, test.migrator)

			assert.Equal(t, 1, test.migrator.closed)
			if test.message == "" {
				assert.Empty(t, hook.AllEntries())
				return
			}
			entry := hook.LastEntry()
			if assert.NotNil(t, entry) {
				assert.Equal(t, test.level, entry.Level)
				assert.Equal(t, test.message, entry.Message)
			}
		})
	}
}
