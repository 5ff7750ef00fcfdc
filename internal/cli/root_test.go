package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "actas", cmd.Use)
	assert.Contains(t, cmd.Long, "sealed")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"init"}, {"capture"}, {"attach"}, {"history"}, {"show"}, {"delete"},
		{"clear"}, {"dedupe"}, {"export"}, {"master", "set"}, {"master", "forget"},
		{"master", "show"}, {"backup"}, {"restore"}, {"schedule"}, {"verify"},
		{"draft", "save"}, {"draft", "show"}, {"draft", "clear"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("db"))
}

func TestCaptureCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	captureCmd, _, err := cmd.Find([]string{"capture"})
	require.NoError(t, err)

	forceFlag := captureCmd.Flags().Lookup("force")
	require.NotNil(t, forceFlag)
	assert.Equal(t, "false", forceFlag.DefValue)
	require.NotNil(t, captureCmd.Flags().Lookup("no-sync"))
}

func TestScheduleCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	scheduleCmd, _, err := cmd.Find([]string{"schedule"})
	require.NoError(t, err)

	tickFlag := scheduleCmd.Flags().Lookup("tick")
	require.NotNil(t, tickFlag)
	assert.Equal(t, "1m0s", tickFlag.DefValue)
	require.NotNil(t, scheduleCmd.Flags().Lookup("once"))
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "history"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
