package auth

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/google/uuid"
	"github.com/jcpaschoal/confmgmt/business/types/action"
	"github.com/jcpaschoal/confmgmt/business/types/resource"
)

// Relations a caller can have with the target of a request.
const (
	relAny   = "any"
	relSuper = "super"
	relSelf  = "self"
	relOwner = "owner"
)

const casbinModel = `
[request_definition]
r = rel, obj, act

[policy_definition]
p = rel, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.rel == p.rel && r.obj == p.obj && r.act == p.act
`

// policies lists which relation grants each action. Room ownership has no
// super bypass.
var policies = [][]string{
	{relSuper, resource.Services.String(), action.List.String()},
	{relSuper, resource.Service.String(), action.Get.String()},
	{relSelf, resource.Service.String(), action.Get.String()},
	{relSelf, resource.Service.String(), action.Delete.String()},
	{relSuper, resource.Service.String(), action.Create.String()},
	{relAny, resource.Rooms.String(), action.List.String()},
	{relAny, resource.Rooms.String(), action.Create.String()},
	{relOwner, resource.Room.String(), action.Get.String()},
	{relOwner, resource.Room.String(), action.Delete.String()},
	{relOwner, resource.Token.String(), action.Create.String()},
}

func newEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	if _, err := e.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("add policies: %w", err)
	}

	return e, nil
}

// Authorize decides whether the caller may perform act on res. targetID is
// the service id for service resources and the room id for room and token
// resources; it is ignored for collections.
func (a *Auth) Authorize(ctx context.Context, caller Caller, res resource.Resource, act action.Action, targetID uuid.UUID) error {
	if res.Equal(resource.Service) && act.Equal(action.Delete) && a.superID != uuid.Nil && targetID == a.superID {
		return ErrSuperServiceUndeletable
	}

	for _, rel := range a.relations(caller, res, targetID) {
		ok, err := a.enforcer.Enforce(rel, res.String(), act.String())
		if err != nil {
			return fmt.Errorf("enforce: %w", err)
		}

		if ok {
			return nil
		}
	}

	a.log.Info(ctx, "**Authorize-DENIED**", "service_id", caller.Service.ID, "resource", res, "action", act, "target", targetID)

	return fmt.Errorf("%w: %s %s", ErrForbidden, act, res)
}

func (a *Auth) relations(caller Caller, res resource.Resource, targetID uuid.UUID) []string {
	rels := []string{relAny}

	if a.IsSuper(caller.Service) {
		rels = append(rels, relSuper)
	}

	switch {
	case res.Equal(resource.Service):
		if targetID != uuid.Nil && targetID == caller.Service.ID {
			rels = append(rels, relSelf)
		}

	case res.Equal(resource.Room), res.Equal(resource.Token):
		if targetID != uuid.Nil && caller.Service.HasRoom(targetID) {
			rels = append(rels, relOwner)
		}
	}

	return rels
}
