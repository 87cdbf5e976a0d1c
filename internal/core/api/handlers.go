package api

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joeyeti/datasworn/internal/idparser"
	"github.com/joeyeti/datasworn/internal/idpattern"
	"github.com/joeyeti/datasworn/internal/typeid"
)

// ParseId checks the shape of an ID and returns its type groups.
func (s *IdService) ParseId(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, toStatus(err)
	}
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	parsed, err := s.parser.Parse(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(parsedFields(parsed))
}

// ResolveId returns every node of the loaded content addressed by an ID.
// Wildcard IDs may return an empty match list.
func (s *IdService) ResolveId(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, toStatus(err)
	}
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	tree := s.currentTree()
	if tree == nil {
		return nil, status.Error(codes.FailedPrecondition, "no content loaded")
	}

	matches, err := s.parser.Resolve(tree, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	out := make([]any, 0, len(matches))
	for _, m := range matches {
		out = append(out, map[string]any{
			"id":        m.ID,
			"type_path": m.TypePath,
			"node":      m.Node,
		})
	}
	return newStruct(map[string]any{"matches": out})
}

// MigrateId migrates one legacy ID. The optional type_hint restricts the
// rules tried. An ID with no migration comes back unchanged with
// migrated=false.
func (s *IdService) MigrateId(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, toStatus(err)
	}

	fields := req.GetFields()
	oldID := fields["id"].GetStringValue()
	if oldID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	var hint typeid.TypeID
	if h := fields["type_hint"].GetStringValue(); h != "" {
		t, err := typeid.Default().Parse(h)
		if err != nil {
			return nil, toStatus(err)
		}
		hint = t
	}

	res, err := s.migrator.Lookup(oldID, hint)
	switch {
	case err == nil && res.Removed:
		return newStruct(map[string]any{"id": oldID, "migrated": false, "removed": true})
	case err == nil:
		return newStruct(map[string]any{"id": res.NewID, "migrated": true, "removed": false, "type": string(res.Type)})
	default:
		return newStruct(map[string]any{"id": oldID, "migrated": false, "removed": false})
	}
}

// MigrateText rewrites a legacy ID, or the legacy references of Markdown
// text.
func (s *IdService) MigrateText(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, toStatus(err)
	}

	out, _ := s.migrator.UpdateIdsInString("", req.GetValue()).(string)
	return wrapperspb.String(out), nil
}

func parsedFields(p *idparser.ParsedID) map[string]any {
	typs := make([]any, len(p.Types))
	for i, t := range p.Types {
		typs[i] = string(t)
	}

	segments := p.Segments()
	formats := make([]any, 0, len(segments))
	for i, f := range p.Pattern().Formats() {
		elems := []any{}
		if i < len(segments) {
			for _, seg := range segments[i] {
				elems = append(elems, seg.String())
			}
		}
		formats = append(formats, map[string]any{
			"type":     string(f.TypeID),
			"pattern":  f.Source(idpattern.Exact, idpattern.GroupNone),
			"segments": elems,
		})
	}

	return map[string]any{
		"id":        p.Raw,
		"type_path": p.TypePath,
		"types":     typs,
		"package":   p.Package,
		"wildcard":  p.Wildcard,
		"formats":   formats,
	}
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return st, nil
}
