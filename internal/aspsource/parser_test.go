package aspsource

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aspembed/asp/internal/appspec"
	"github.com/aspembed/asp/internal/calling"
)

func TestParseVariableAndFunction(t *testing.T) {
	src := "lib demo\n" +
		"var greeting = \"hello\"\n" +
		"def send(target, count=1, *extra, **opts)\n"

	result, err := Parse(src)
	require.NoError(t, err)
	require.Equal(t, "demo", result.BaseName)
	require.Len(t, result.Entries, 2)

	greeting := result.Entries[0]
	require.Equal(t, appspec.EntryVariable, greeting.Kind)
	require.Equal(t, "greeting", greeting.Name)
	require.NotNil(t, greeting.Literal)
	require.Equal(t, appspec.LiteralBytes, greeting.Literal.Kind)
	require.Equal(t, "hello", string(greeting.Literal.Bytes))

	send := result.Entries[1]
	require.Equal(t, appspec.EntryFunction, send.Kind)
	require.Equal(t, "send", send.Name)
	require.Len(t, send.Parameters, 4)
	require.Equal(t, calling.ParamPlain, send.Parameters[0].Kind)
	require.Equal(t, calling.ParamDefaulted, send.Parameters[1].Kind)
	require.NotNil(t, send.Parameters[1].Default)
	require.Equal(t, int32(1), send.Parameters[1].Default.Int32)
	require.Equal(t, calling.ParamTupleGroup, send.Parameters[2].Kind)
	require.Equal(t, calling.ParamDictGroup, send.Parameters[3].Kind)
}

func TestParseAssignsSymbolsNamesThenParameters(t *testing.T) {
	src := "var limit = 10\n" +
		"def run(limit, step)\n"

	result, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)

	limitVar := result.Entries[0]
	runFn := result.Entries[1]

	require.Equal(t, int32(0), limitVar.SymbolID)
	require.Equal(t, int32(1), runFn.SymbolID)
	require.Equal(t, int32(0), runFn.Parameters[0].SymbolID) // "limit" already assigned
	require.Equal(t, int32(2), runFn.Parameters[1].SymbolID) // "step" new
}

func TestParseRejectsMissingParen(t *testing.T) {
	_, err := Parse("def broken\n")
	require.Error(t, err)
}
