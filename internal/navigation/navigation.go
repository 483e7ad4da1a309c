// Package navigation はセッションに応じて表示するメニュー項目を決定する。
package navigation

import (
	"github.com/hitoshi/dermaassist/internal/model"
	"github.com/hitoshi/dermaassist/internal/route"
)

// Item はメニューに表示する1項目を表す。
// アクセス制御フラグは必ずルート表と一致させるため、Descriptorを埋め込む。
type Item struct {
	Label string `json:"label"`
	route.Descriptor
}

type entry struct {
	label string
	path  string
}

var (
	publicEntries = []entry{
		{"Home", route.HomePath},
		{"About", "/about"},
		{"Our Team", "/team"},
		{"Contact", "/contact"},
		{"Login", route.LoginPath},
		{"Sign Up", "/signup"},
	}

	doctorEntries = []entry{
		{"Home", route.HomePath},
		{"Patients", "/patients"},
		{"Appointments", "/appointments"},
		{"Messages", "/chat"},
		{"Records", "/history"},
	}

	patientEntries = []entry{
		{"Home", route.HomePath},
		{"Diagnosis", "/diagnosis"},
		{"Doctors", "/doctors"},
		{"Store", "/store"},
		{"Community", "/chat"},
		{"History", "/history"},
	}
)

// VisibleRoutes はセッションに応じたメニュー項目を返す。
// 未ログインの場合は公開メニュー、医師は医師用メニュー、それ以外のロールは患者用メニューを返す。
func VisibleRoutes(s *model.Session) []Item {
	switch {
	case s == nil:
		return build(publicEntries)
	case s.Role == model.RoleDoctor:
		return build(doctorEntries)
	default:
		return build(patientEntries)
	}
}

func build(entries []entry) []Item {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, Item{Label: e.label, Descriptor: route.MustLookup(e.path)})
	}
	return items
}
