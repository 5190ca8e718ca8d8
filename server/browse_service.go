package server

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/chazu/sprat/vm"
)

// BrowseService implements the BrowsingService handlers over the classes
// and interfaces visible at the program's top level.
type BrowseService struct {
	worker *VMWorker
}

// NewBrowseService creates a BrowseService.
func NewBrowseService(worker *VMWorker) *BrowseService {
	return &BrowseService{worker: worker}
}

// ListClasses returns a summary of every visible class.
//
// Request:  {interfacesOnly?}
// Response: {classes: [{name, interface, slots, methods}]}
func (s *BrowseService) ListClasses(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	onlyInterfaces := req.Msg.GetFields()["interfacesOnly"].GetBoolValue()
	result, err := s.worker.Do(ctx, func(v *vm.VM) (any, error) {
		var infos []any
		for _, c := range v.Classes() {
			if onlyInterfaces && !c.Interface {
				continue
			}
			infos = append(infos, map[string]any{
				"name":      c.Name,
				"interface": c.Interface,
				"slots":     c.Instance.NumSlots(),
				"methods":   len(c.Instance.Selectors()),
			})
		}
		return infos, nil
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	infos, _ := result.([]any)
	if infos == nil {
		infos = []any{}
	}
	return reply(map[string]any{"classes": infos})
}

// GetClass describes one class in detail.
//
// Request:  {name}
// Response: {name, interface, doc, slots, selectors, classSelectors,
// interfaces, required}
func (s *BrowseService) GetClass(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	name := stringField(req.Msg, "name")
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
	}
	result, err := s.worker.Do(ctx, func(v *vm.VM) (any, error) {
		c, ok := v.LookupClass(name)
		if !ok {
			return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("class %q not found", name))
		}
		return classDetail(c), nil
	})
	if err != nil {
		if ce, ok := err.(*connect.Error); ok {
			return nil, ce
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return reply(result.(map[string]any))
}

func classDetail(c *vm.Class) map[string]any {
	return map[string]any{
		"name":           c.Name,
		"interface":      c.Interface,
		"doc":            c.Doc,
		"slots":          stringList(c.Instance.SlotNames()),
		"selectors":      stringList(c.Instance.Selectors()),
		"classSelectors": stringList(c.Meta.Selectors()),
		"interfaces":     stringList(c.Instance.Interfaces()),
		"required":       stringList(c.Required),
	}
}
