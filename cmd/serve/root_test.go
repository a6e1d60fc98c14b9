package serve

import (
	"testing"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShards(t *testing.T) {
	shards, err := ParseShards("1=json, 2=db,3=array")
	require.NoError(t, err)
	assert.Equal(t, []common.ServerShard{
		{ShardID: 1, Driver: backend.ImplJSON},
		{ShardID: 2, Driver: backend.ImplDatabase},
		{ShardID: 3, Driver: backend.ImplMemory},
	}, shards)

	for _, invalid := range []string{"", "1", "x=json", "1=mongo", "1=json,1=redis", "1=remote"} {
		_, err := ParseShards(invalid)
		assert.Error(t, err, invalid)
	}
}
