// Package guard はルートのアクセス制御フラグとセッションから表示可否を判定する。
package guard

import (
	"github.com/hitoshi/dermaassist/internal/model"
	"github.com/hitoshi/dermaassist/internal/route"
)

// Kind は判定結果の種類を表す。
type Kind string

const (
	// Allow はビューを表示する。
	Allow Kind = "allow"
	// Redirect は別のパスへ遷移させる。
	Redirect Kind = "redirect"
)

// Decision はガードの判定結果を表す。
type Decision struct {
	Kind     Kind   `json:"kind"`
	View     string `json:"view,omitempty"`
	Target   string `json:"target,omitempty"`
	ReturnTo string `json:"return_to,omitempty"`
	// Reason はログとメトリクス用の判定理由。
	Reason string `json:"reason"`
}

// 判定理由
const (
	ReasonPublic         = "public"
	ReasonAuthenticated  = "authenticated"
	ReasonGuestOnly      = "guest_only"
	ReasonSignInRequired = "sign_in_required"
	ReasonRoleNotAllowed = "role_not_allowed"
	ReasonGuestAnonymous = "guest_anonymous"
	ReasonUnknownRoute   = "unknown_route"
)

// Policy はガードの動作を設定する。
type Policy struct {
	// EnforceRoles がtrueの場合、Descriptor.Rolesに含まれないロールのアクセスを拒否する。
	// falseの場合、ロールによる制限はメニューの表示のみで行う。
	EnforceRoles bool
}

// Guard はルートの表示可否を判定する。状態を持たない。
type Guard struct {
	policy Policy
}

// New はGuardを生成する。
func New(policy Policy) *Guard {
	return &Guard{policy: policy}
}

// Policy は設定されているPolicyを返す。
func (g *Guard) Policy() Policy {
	return g.policy
}

// Authorize はDescriptorとセッションから判定結果を返す。
//
//   - guest_onlyのルートにセッションありでアクセスした場合はランディングページへリダイレクト
//   - publicのルートは常に表示
//   - protectedのルートにセッションなしでアクセスした場合はログインページへリダイレクト（ReturnToに元のパス）
//   - protectedのルートにセッションありでアクセスした場合は表示
//     （EnforceRolesが有効でロールが許可されていない場合はランディングページへリダイレクト）
func (g *Guard) Authorize(d route.Descriptor, s *model.Session) Decision {
	switch d.Access {
	case route.AccessGuestOnly:
		if s != nil {
			return redirect(route.LandingPath, "", ReasonGuestOnly)
		}
		return allow(d, ReasonGuestAnonymous)

	case route.AccessProtected:
		if s == nil {
			return redirect(route.LoginPath, d.Path, ReasonSignInRequired)
		}
		if g.policy.EnforceRoles && !d.AllowsRole(s.Role) {
			return redirect(route.LandingPath, "", ReasonRoleNotAllowed)
		}
		return allow(d, ReasonAuthenticated)

	default:
		return allow(d, ReasonPublic)
	}
}

// Resolve はパスをルート表で引いてから判定する。
// 登録されていないパスはホームへリダイレクトする。
func (g *Guard) Resolve(path string, s *model.Session) (route.Descriptor, Decision) {
	d, ok := route.Lookup(path)
	if !ok {
		return route.Descriptor{}, redirect(route.HomePath, "", ReasonUnknownRoute)
	}
	return d, g.Authorize(d, s)
}

func allow(d route.Descriptor, reason string) Decision {
	return Decision{Kind: Allow, View: d.View, Reason: reason}
}

func redirect(target, returnTo, reason string) Decision {
	return Decision{Kind: Redirect, Target: target, ReturnTo: returnTo, Reason: reason}
}
