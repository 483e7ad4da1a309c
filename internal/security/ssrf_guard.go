package security

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// ErrURLBlocked はURLがSSRF防止の検証で拒否された場合に返される。
var ErrURLBlocked = errors.New("security: url is not allowed")

// URLValidator はリモート画像URLを取得する前の静的検証を行う。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// SSRFGuard は診断画像をURLで受け付ける際のSSRF対策を提供する。
//
// ValidateURLはリクエスト受付時の静的チェック、NewSafeClientは実際の取得に使う
// HTTPクライアントで、safeurlがDNS解決後の接続先IPも検証する（DNS再バインディング対策）。
type SSRFGuard struct {
	schemes []string
	ports   []int
}

// NewSSRFGuard はhttp/httpsの標準ポートのみを許可するSSRFGuardを生成する。
func NewSSRFGuard() *SSRFGuard {
	return &SSRFGuard{
		schemes: []string{"http", "https"},
		ports:   []int{80, 443},
	}
}

// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
// プライベートIP、ループバック、リンクローカル（メタデータIPを含む）への接続はsafeurlが拒否する。
func (g *SSRFGuard) NewSafeClient(timeout time.Duration) *http.Client {
	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(g.schemes...).
		SetAllowedPorts(g.ports...).
		Build()
	return safeurl.Client(cfg).Client
}

// blockedPrefixes はValidateURLで拒否するアドレス範囲。
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),      // カレントネットワーク
	netip.MustParsePrefix("10.0.0.0/8"),     // RFC 1918
	netip.MustParsePrefix("172.16.0.0/12"),  // RFC 1918
	netip.MustParsePrefix("192.168.0.0/16"), // RFC 1918
	netip.MustParsePrefix("127.0.0.0/8"),    // ループバック
	netip.MustParsePrefix("169.254.0.0/16"), // リンクローカル（169.254.169.254を含む）
	netip.MustParsePrefix("100.64.0.0/10"),  // CGNAT
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("fc00::/7"),
}

// ValidateURL はURLのスキーム・ポート・ホストを静的に検証する。
// 拒否した場合はErrURLBlockedをラップしたエラーを返す。
func (g *SSRFGuard) ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: empty URL", ErrURLBlocked)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid URL: %v", ErrURLBlocked, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if !containsString(g.schemes, scheme) {
		return fmt.Errorf("%w: scheme %q", ErrURLBlocked, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrURLBlocked)
	}

	if p := u.Port(); p != "" && !containsPort(g.ports, p) {
		return fmt.Errorf("%w: port %s", ErrURLBlocked, p)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		addr = addr.Unmap()
		for _, prefix := range blockedPrefixes {
			if prefix.Contains(addr) {
				return fmt.Errorf("%w: address %s", ErrURLBlocked, addr)
			}
		}
		return nil
	}

	lower := strings.ToLower(strings.TrimSuffix(host, "."))
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return fmt.Errorf("%w: host %s", ErrURLBlocked, host)
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPort(ports []int, p string) bool {
	for _, v := range ports {
		if strconv.Itoa(v) == p {
			return true
		}
	}
	return false
}

var _ URLValidator = (*SSRFGuard)(nil)
