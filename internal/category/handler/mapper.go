package handler

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/fekuna/omnipos-backoffice/internal/category/dto"
	"github.com/fekuna/omnipos-backoffice/internal/category/explorer"
	"github.com/fekuna/omnipos-backoffice/internal/category/session"
	"github.com/fekuna/omnipos-backoffice/internal/category/tree"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// filterFromStruct reads search, parent_id, is_active and roots_only.
// Without a parent or a search term only roots are listed, unless
// roots_only is explicitly false.
func filterFromStruct(req *structpb.Struct) dto.CategoryFilters {
	fields := req.GetFields()

	var f dto.CategoryFilters
	f.Search = strings.TrimSpace(fields["search"].GetStringValue())

	if v, ok := fields["parent_id"]; ok {
		if _, isNum := v.GetKind().(*structpb.Value_NumberValue); isNum {
			id := int64(v.GetNumberValue())
			f.ParentID = &id
		}
	}
	if v, ok := fields["is_active"]; ok {
		if _, isBool := v.GetKind().(*structpb.Value_BoolValue); isBool {
			active := v.GetBoolValue()
			f.IsActive = &active
		}
	}

	f.RootsOnly = f.ParentID == nil && f.Search == ""
	if v, ok := fields["roots_only"]; ok {
		if _, isBool := v.GetKind().(*structpb.Value_BoolValue); isBool {
			f.RootsOnly = v.GetBoolValue()
		}
	}
	return f
}

func intField(req *structpb.Struct, name string) int {
	n := req.GetFields()[name].GetNumberValue()
	if n <= 0 || n > math.MaxInt32 {
		return 0
	}
	return int(n)
}

func snapshotResponse(s explorer.Snapshot) (*structpb.Struct, error) {
	forest := make([]interface{}, 0, len(s.Forest))
	for _, n := range s.Forest {
		forest = append(forest, nodeMap(n, 0))
	}

	var selected interface{}
	if s.HasSelection {
		selected = float64(s.SelectedID)
	}

	detail := map[string]interface{}{
		"category_id": float64(s.Detail.CategoryID),
		"is_loading":  s.Detail.IsLoading,
		"data":        nil,
	}
	if s.Detail.Data != nil {
		data, err := jsonMap(s.Detail.Data)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		detail["data"] = data
	}

	var lastError interface{}
	if f := s.LastFailure; f != nil {
		lastError = map[string]interface{}{
			"category_id": float64(f.CategoryID),
			"message":     "failed to load child categories",
		}
	}

	return newStruct(map[string]interface{}{
		"version":     float64(s.Version),
		"forest":      forest,
		"selected_id": selected,
		"detail":      detail,
		"last_error":  lastError,
	})
}

func nodeMap(n *model.CategoryNode, depth int) map[string]interface{} {
	children := make([]interface{}, 0, len(n.Children))
	if depth < tree.MaxDepth {
		for _, c := range n.Children {
			children = append(children, nodeMap(c, depth+1))
		}
	}

	var parentID interface{}
	if n.ParentID != nil {
		parentID = float64(*n.ParentID)
	}

	return map[string]interface{}{
		"id":                      float64(n.ID),
		"title":                   n.Title,
		"parent_id":               parentID,
		"has_children":            n.HasChildren,
		"is_loading":              n.IsLoading,
		"is_expanded":             n.IsExpanded,
		"is_featured_category":    n.IsFeaturedCategory,
		"is_best_seller_category": n.IsBestSellerCategory,
		"children":                children,
	}
}

func listResponse(st session.GridState) (*structpb.Struct, error) {
	items := make([]interface{}, 0, len(st.Items))
	for i := range st.Items {
		m, err := jsonMap(&st.Items[i])
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		items = append(items, m)
	}

	return newStruct(map[string]interface{}{
		"items":       items,
		"total":       float64(st.Total),
		"page":        float64(st.Page),
		"page_size":   float64(st.PageSize),
		"total_pages": float64(st.TotalPages),
	})
}

func jsonMap(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func newStruct(m map[string]interface{}) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}
