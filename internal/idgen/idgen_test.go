package idgen_test

import (
	"testing"

	"github.com/darkfi-go/eventgraph/internal/idgen"
	"github.com/darkfi-go/eventgraph/internal/types"
	"github.com/stretchr/testify/require"
)

func TestShortEventIsStableLength(t *testing.T) {
	var id types.ID
	id[0] = 0xFF
	require.Len(t, idgen.ShortEvent(id), 8)
}

func TestEncodeBase36PadsShortInput(t *testing.T) {
	got := idgen.EncodeBase36([]byte{0}, 5)
	require.Equal(t, "00000", got)
}

func TestEncodeBase36Deterministic(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	require.Equal(t, idgen.EncodeBase36(data, 8), idgen.EncodeBase36(data, 8))
}
