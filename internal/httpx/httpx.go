// Package httpx holds the request helpers shared by the fiber handlers.
package httpx

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"github.com/gofiber/fiber/v2"
)

const CtxActorKey = "actor"

func SetActor(c *fiber.Ctx, a models.Actor) { c.Locals(CtxActorKey, a) }

// ActorFrom returns the authenticated caller, or the anonymous POS actor
// on public routes.
func ActorFrom(c *fiber.Ctx) models.Actor {
	if a, ok := c.Locals(CtxActorKey).(models.Actor); ok {
		return a
	}
	return models.Actor{}
}

// ID decodes a JSON id sent either as a number or as a numeric string.
// Empty strings and null decode to an unset id.
type ID struct {
	Value uint
	Set   bool
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ID{}
		return nil
	}
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*id = ID{}
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return apperr.Validation(apperr.MsgInvalidID, nil)
	}
	*id = ID{Value: uint(v), Set: true}
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if !id.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatUint(uint64(id.Value), 10)), nil
}

func (id ID) Ptr() *uint {
	if !id.Set {
		return nil
	}
	v := id.Value
	return &v
}

// ParseBody decodes the request body, mapping decode failures to a
// validation error unless the decoder already returned one.
func ParseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		if apperr.IsKind(err, apperr.KindValidation) {
			return err
		}
		return apperr.Validation(apperr.MsgInvalidRequestBody, nil)
	}
	return nil
}

// ParamID parses a positive id route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperr.Validation(apperr.MsgInvalidID, nil)
	}
	return uint(v), nil
}

// QueryID parses an optional positive id query parameter.
func QueryID(c *fiber.Ctx, name string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, apperr.Validation(apperr.MsgInvalidID, nil)
	}
	id := uint(v)
	return &id, nil
}

// ResolveShop picks the shop an operation runs against. Workers always use
// their own shop; a different requested shop is refused. Admins and the
// anonymous POS terminal must name one.
func ResolveShop(a models.Actor, requested *uint) (uint, error) {
	if a.IsWorker() {
		if a.ShopID == nil {
			return 0, apperr.Forbidden(apperr.MsgShopAccessDenied)
		}
		if requested != nil && *requested != *a.ShopID {
			return 0, apperr.Forbidden(apperr.MsgShopAccessDenied)
		}
		return *a.ShopID, nil
	}
	if requested == nil {
		return 0, apperr.Validation(apperr.MsgFieldRequired, map[string]any{"Field": "shop_id"})
	}
	return *requested, nil
}

// ScopeShop is ResolveShop for read filters: admins may leave the shop
// unset to see every shop.
func ScopeShop(a models.Actor, requested *uint) (*uint, error) {
	if a.IsWorker() {
		id, err := ResolveShop(a, requested)
		if err != nil {
			return nil, err
		}
		return &id, nil
	}
	return requested, nil
}

// Languages lists the caller's language preferences, the lang query
// parameter first.
func Languages(c *fiber.Ctx) []string {
	var out []string
	if l := c.Query("lang"); l != "" {
		out = append(out, l)
	}
	if al := c.Get(fiber.HeaderAcceptLanguage); al != "" {
		out = append(out, al)
	}
	return out
}
