package storage

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/iqbalbaharum/hyper-sdk/internal/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeploymentStorage(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	s := NewDeploymentStorage(client)
	ctx := context.Background()

	_, err := s.GetDeployment(ctx, 1337)
	assert.ErrorIs(t, err, ErrDeploymentNotFound)

	d := &types.Deployment{
		Hyper:     common.HexToAddress("0x00000000000000000000000000000000000000a1"),
		Forwarder: common.HexToAddress("0x00000000000000000000000000000000000000b1"),
		ChainId:   1337,
	}
	require.NoError(t, s.SetDeployment(ctx, d))
	assert.True(t, srv.Exists(KEY_DEPLOYMENT))

	got, err := s.GetDeployment(ctx, 1337)
	require.NoError(t, err)
	assert.Equal(t, d, got)

	_, err = s.GetDeployment(ctx, 1)
	assert.ErrorIs(t, err, ErrDeploymentNotFound)
}

func TestSubmissionRecord(t *testing.T) {
	client, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer client.Close()

	sub := &types.Submission{
		Hash:      "0xaa",
		Target:    "0xa1",
		Via:       "0xb1",
		Payload:   "0x0c",
		Ops:       "createPair",
		Timestamp: 1700000000,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WithArgs(sub.Hash, sub.Target, sub.Via, sub.Payload, sub.Ops, sub.Timestamp).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, NewSubmissionStorage(client).Record(context.Background(), sub))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionSearch(t *testing.T) {
	client, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer client.Close()

	rows := sqlmock.NewRows([]string{"hash", "target", "via", "payload", "ops", "timestamp"}).
		AddRow("0xaa", "0xa1", "0xb1", "0x0c", "createPair", int64(10)).
		AddRow("0xbb", "0xa1", "0xb1", "0x01", "addLiquidity", int64(5))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT hash, target, via, payload, ops, timestamp FROM submissions WHERE target = ? ORDER BY timestamp DESC LIMIT 2")).
		WithArgs("0xa1").
		WillReturnRows(rows)

	got, err := NewSubmissionStorage(client).Search(context.Background(), types.MySQLFilter{
		Query: []types.MySQLQuery{{Column: "target", Op: "=", Query: "0xa1"}},
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0xaa", got[0].Hash)
	assert.Equal(t, "addLiquidity", got[1].Ops)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionSearchRejectsFilter(t *testing.T) {
	client, _, err := sqlmock.New()
	require.NoError(t, err)
	defer client.Close()

	s := NewSubmissionStorage(client)

	_, err = s.Search(context.Background(), types.MySQLFilter{
		Query: []types.MySQLQuery{{Column: "id; DROP TABLE submissions", Op: "=", Query: "1"}},
	})
	assert.ErrorIs(t, err, ErrInvalidFilter)

	_, err = s.Search(context.Background(), types.MySQLFilter{
		Query: []types.MySQLQuery{{Column: "hash", Op: "IN", Query: "1"}},
	})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}
