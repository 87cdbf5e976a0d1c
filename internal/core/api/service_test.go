package api

import (
	"context"
	"net"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joeyeti/datasworn/internal/idparser"
	"github.com/joeyeti/datasworn/internal/idpattern"
	"github.com/joeyeti/datasworn/internal/migration"
	"github.com/joeyeti/datasworn/internal/types"
)

const testTree = `{
  "classic": {
    "_id": "classic",
    "moves": {
      "fate": {
        "contents": {
          "ask_the_oracle": {
            "oracles": {"almost_certain": {"name": "Almost Certain"}}
          },
          "pay_the_price": {"name": "Pay the Price"}
        }
      }
    }
  },
  "starforged": {
    "_id": "starforged",
    "moves": {"fate": {"contents": {"pay_the_price": {"name": "Pay the Price", "trigger": {"text": "When you..."}}}}}
  }
}`

func loadTree(t *testing.T) idparser.Tree {
	t.Helper()
	var tree idparser.Tree
	require.NoError(t, json.Unmarshal([]byte(testTree), &tree))
	return tree
}

// startServer serves svc over an in-memory listener and returns a client.
func startServer(t *testing.T, svc IdServiceServer) *IdServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterIdServiceServer(srv, svc)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewIdServiceClient(conn)
}

func newService(t *testing.T, tree idparser.Tree) *IdService {
	t.Helper()
	p, err := idparser.New(idpattern.Default(), 0)
	require.NoError(t, err)
	svc, err := NewIdService(p, migration.Default(), tree)
	require.NoError(t, err)
	return svc
}

func TestNewIdService(t *testing.T) {
	p, err := idparser.New(idpattern.Default(), 0)
	require.NoError(t, err)

	_, err = NewIdService(nil, migration.Default(), nil)
	assert.Error(t, err)
	_, err = NewIdService(p, nil, nil)
	assert.Error(t, err)
}

func TestParseId(t *testing.T) {
	client := startServer(t, newService(t, nil))
	ctx := context.Background()

	resp, err := client.ParseId(ctx, wrapperspb.String("move.oracle_rollable:classic/fate/ask_the_oracle.almost_certain"))
	require.NoError(t, err)

	got := resp.AsMap()
	assert.Equal(t, "move.oracle_rollable", got["type_path"])
	assert.Equal(t, "classic", got["package"])
	assert.Equal(t, false, got["wildcard"])
	assert.Equal(t, []any{"move", "oracle_rollable"}, got["types"])

	formats := got["formats"].([]any)
	require.Len(t, formats, 2)
	first := formats[0].(map[string]any)
	assert.Equal(t, "move", first["type"])
	assert.Equal(t, []any{"classic", "fate", "ask_the_oracle"}, first["segments"])
	assert.NotEmpty(t, first["pattern"])
	assert.Equal(t, []any{"almost_certain"}, formats[1].(map[string]any)["segments"])

	t.Run("wildcard", func(t *testing.T) {
		resp, err := client.ParseId(ctx, wrapperspb.String("move:*/fate/pay_the_price"))
		require.NoError(t, err)
		assert.Equal(t, true, resp.AsMap()["wildcard"])
	})

	invalid := []string{"", "move:classic/FATE", "bogus:classic/x", "classic/moves/fate"}
	for _, id := range invalid {
		t.Run("invalid "+id, func(t *testing.T) {
			_, err := client.ParseId(ctx, wrapperspb.String(id))
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestResolveId(t *testing.T) {
	client := startServer(t, newService(t, loadTree(t)))
	ctx := context.Background()

	t.Run("single", func(t *testing.T) {
		resp, err := client.ResolveId(ctx, wrapperspb.String("move.oracle_rollable:classic/fate/ask_the_oracle.almost_certain"))
		require.NoError(t, err)

		matches := resp.AsMap()["matches"].([]any)
		require.Len(t, matches, 1)
		m := matches[0].(map[string]any)
		assert.Equal(t, "move.oracle_rollable:classic/fate/ask_the_oracle.almost_certain", m["id"])
		assert.Equal(t, "move.oracle_rollable", m["type_path"])
		assert.Equal(t, map[string]any{"name": "Almost Certain"}, m["node"])
	})

	t.Run("wildcard expands across packages", func(t *testing.T) {
		resp, err := client.ResolveId(ctx, wrapperspb.String("move:*/fate/pay_the_price"))
		require.NoError(t, err)

		var ids []string
		for _, m := range resp.AsMap()["matches"].([]any) {
			ids = append(ids, m.(map[string]any)["id"].(string))
		}
		assert.Equal(t, []string{"move:classic/fate/pay_the_price", "move:starforged/fate/pay_the_price"}, ids)
	})

	t.Run("wildcard without matches", func(t *testing.T) {
		resp, err := client.ResolveId(ctx, wrapperspb.String("move:*/fate/face_danger"))
		require.NoError(t, err)
		assert.Empty(t, resp.AsMap()["matches"])
	})

	t.Run("not found", func(t *testing.T) {
		_, err := client.ResolveId(ctx, wrapperspb.String("move:classic/fate/face_danger"))
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := client.ResolveId(ctx, wrapperspb.String("move:classic"))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestResolveIdWithoutContent(t *testing.T) {
	svc := newService(t, nil)
	client := startServer(t, svc)
	ctx := context.Background()

	_, err := client.ResolveId(ctx, wrapperspb.String("move:classic/fate/pay_the_price"))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	svc.SetTree(loadTree(t))
	_, err = client.ResolveId(ctx, wrapperspb.String("move:classic/fate/pay_the_price"))
	assert.NoError(t, err)
}

func TestMigrateId(t *testing.T) {
	client := startServer(t, newService(t, nil))
	ctx := context.Background()

	tests := []struct {
		name string
		req  map[string]any
		want map[string]any
	}{
		{
			name: "migrated",
			req:  map[string]any{"id": "starforged/collections/oracles/factions"},
			want: map[string]any{"id": "oracle_collection:starforged/faction", "migrated": true, "removed": false, "type": "oracle_collection"},
		},
		{
			name: "with hint",
			req:  map[string]any{"id": "starforged/moves/adventure/face_danger", "type_hint": "move"},
			want: map[string]any{"id": "move:starforged/adventure/face_danger", "migrated": true, "removed": false, "type": "move"},
		},
		{
			name: "removed",
			req:  map[string]any{"id": "starforged/collections/oracles/moves"},
			want: map[string]any{"id": "starforged/collections/oracles/moves", "migrated": false, "removed": true},
		},
		{
			name: "no migration",
			req:  map[string]any{"id": "move:starforged/adventure/face_danger"},
			want: map[string]any{"id": "move:starforged/adventure/face_danger", "migrated": false, "removed": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := structpb.NewStruct(tt.req)
			require.NoError(t, err)

			resp, err := client.MigrateId(ctx, req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.AsMap())
		})
	}

	t.Run("missing id", func(t *testing.T) {
		_, err := client.MigrateId(ctx, &structpb.Struct{})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("unknown hint", func(t *testing.T) {
		req, err := structpb.NewStruct(map[string]any{"id": "starforged/moves/adventure/face_danger", "type_hint": "bogus"})
		require.NoError(t, err)
		_, err = client.MigrateId(ctx, req)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestMigrateText(t *testing.T) {
	client := startServer(t, newService(t, nil))
	ctx := context.Background()

	tests := []struct {
		in, want string
	}{
		{"starforged/moves/adventure/face_danger", "move:starforged/adventure/face_danger"},
		{
			"See [Face Danger](id:starforged/moves/adventure/face_danger).",
			"See [Face Danger](id:move:starforged/adventure/face_danger).",
		},
		{"Face Danger", "Face Danger"},
		{"", ""},
	}

	for _, tt := range tests {
		resp, err := client.MigrateText(ctx, wrapperspb.String(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.GetValue())
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{types.ErrInvalidIDShape, codes.InvalidArgument},
		{types.ErrUnknownType, codes.InvalidArgument},
		{types.ErrNotFound, codes.NotFound},
		{types.ErrNoMigrationAvailable, codes.NotFound},
		{types.ErrAmbiguousResolution, codes.FailedPrecondition},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{context.Canceled, codes.Canceled},
		{status.Error(codes.Unavailable, "down"), codes.Unavailable},
		{assert.AnError, codes.Internal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, status.Code(toStatus(tt.err)), tt.err.Error())
	}
	assert.NoError(t, toStatus(nil))
}

func TestCancelledContext(t *testing.T) {
	svc := newService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ParseId(ctx, wrapperspb.String("move:classic/fate/pay_the_price"))
	assert.Equal(t, codes.Canceled, status.Code(err))
}
