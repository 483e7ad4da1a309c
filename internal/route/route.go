// Package route はアプリケーションのビュー（画面）とアクセス制御フラグの対応表を定義する。
package route

import (
	"strings"

	"github.com/hitoshi/dermaassist/internal/model"
)

// Access はルートのアクセス区分を表す。
type Access string

const (
	// AccessPublic は誰でも表示できる。
	AccessPublic Access = "public"
	// AccessProtected はサインインが必要。
	AccessProtected Access = "protected"
	// AccessGuestOnly は未ログイン時のみ表示できる（ログイン・サインアップ画面など）。
	AccessGuestOnly Access = "guest_only"
)

// 固定の遷移先
const (
	HomePath    = "/"
	LoginPath   = "/login"
	LandingPath = "/dashboard"
)

// Descriptor はパスと表示するビュー、およびアクセス制御フラグの組を表す。
type Descriptor struct {
	Path   string       `json:"path"`
	View   string       `json:"view"`
	Title  string       `json:"title"`
	Access Access       `json:"access"`
	Roles  []model.Role `json:"roles,omitempty"`
}

// RequiresSession はセッションが必要なルートかを返す。
func (d Descriptor) RequiresSession() bool {
	return d.Access == AccessProtected
}

// AllowsRole はロール指定がない、またはroleが含まれている場合にtrueを返す。
func (d Descriptor) AllowsRole(role model.Role) bool {
	if len(d.Roles) == 0 {
		return true
	}
	for _, r := range d.Roles {
		if r == role {
			return true
		}
	}
	return false
}

var table = []Descriptor{
	{Path: HomePath, View: "home", Title: "Home", Access: AccessPublic},
	{Path: LoginPath, View: "login", Title: "Sign In", Access: AccessGuestOnly},
	{Path: "/signup", View: "signup", Title: "Sign Up", Access: AccessGuestOnly},
	{Path: "/forgot-password", View: "forgot_password", Title: "Forgot Password", Access: AccessGuestOnly},
	{Path: LandingPath, View: "dashboard", Title: "Dashboard", Access: AccessProtected},
	{Path: "/doctors", View: "doctors", Title: "Doctors", Access: AccessPublic},
	{Path: "/diagnosis", View: "diagnosis", Title: "Diagnosis", Access: AccessPublic},
	{Path: "/history", View: "history", Title: "History", Access: AccessProtected},
	{Path: "/reports", View: "reports", Title: "Reports", Access: AccessProtected},
	{Path: "/appointments", View: "appointments", Title: "Appointments", Access: AccessProtected},
	{Path: "/chat", View: "chat", Title: "Chat", Access: AccessProtected},
	{Path: "/patients", View: "patients", Title: "Patients", Access: AccessProtected, Roles: []model.Role{model.RoleDoctor}},
	{Path: "/about", View: "about", Title: "About", Access: AccessPublic},
	{Path: "/team", View: "team", Title: "Our Team", Access: AccessPublic},
	{Path: "/contact", View: "contact", Title: "Contact", Access: AccessPublic},
	{Path: "/store", View: "store", Title: "Store", Access: AccessPublic},
}

var byPath = func() map[string]Descriptor {
	m := make(map[string]Descriptor, len(table))
	for _, d := range table {
		m[d.Path] = d
	}
	return m
}()

// Lookup はパスに対応するDescriptorを返す。
// 末尾のスラッシュは無視する。一致しない場合はfalseを返す。
func Lookup(path string) (Descriptor, bool) {
	d, ok := byPath[Normalize(path)]
	return d, ok
}

// MustLookup はLookupと同じだが、未登録のパスの場合はpanicする。
// 固定のパスからDescriptorを組み立てる箇所でのみ使用する。
func MustLookup(path string) Descriptor {
	d, ok := Lookup(path)
	if !ok {
		panic("route: unknown path " + path)
	}
	return d
}

// All は登録されているすべてのDescriptorを定義順で返す。
func All() []Descriptor {
	out := make([]Descriptor, len(table))
	copy(out, table)
	return out
}

// Normalize はクエリを除いたパスから末尾のスラッシュを取り除く。ルートは"/"のまま。
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return HomePath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
