// internal/service/device.go
package service

import "strings"

// Device is the coarse client description derived from a user agent
type Device struct {
	Type    string
	Browser string
	OS      string
}

// DetectDevice classifies a user agent string. Order matters: tablets and
// in-app browsers carry mobile tokens too.
func DetectDevice(userAgent string) Device {
	ua := strings.ToLower(userAgent)
	if ua == "" {
		return Device{Type: "unknown", Browser: "Unknown", OS: "Unknown"}
	}
	return Device{
		Type:    detectDeviceType(ua),
		Browser: detectBrowser(ua),
		OS:      detectOS(ua),
	}
}

func detectDeviceType(ua string) string {
	switch {
	case containsAny(ua, "bot", "crawler", "spider", "headless"):
		return "bot"
	case containsAny(ua, "ipad", "tablet") || (strings.Contains(ua, "android") && !strings.Contains(ua, "mobile")):
		return "tablet"
	case containsAny(ua, "mobile", "iphone", "ipod", "android"):
		return "mobile"
	default:
		return "desktop"
	}
}

func detectBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "kakaotalk"):
		return "KakaoTalk"
	case strings.Contains(ua, "naver"):
		return "Naver"
	case strings.Contains(ua, "samsungbrowser"):
		return "Samsung Internet"
	case strings.Contains(ua, "edg/"):
		return "Edge"
	case containsAny(ua, "opr/", "opera"):
		return "Opera"
	case containsAny(ua, "firefox/", "fxios/"):
		return "Firefox"
	case containsAny(ua, "chrome/", "crios/"):
		return "Chrome"
	case strings.Contains(ua, "safari/"):
		return "Safari"
	default:
		return "Unknown"
	}
}

func detectOS(ua string) string {
	switch {
	case containsAny(ua, "iphone", "ipad", "ipod"):
		return "iOS"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "mac os x"):
		return "macOS"
	case strings.Contains(ua, "cros"):
		return "ChromeOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	default:
		return "Unknown"
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
