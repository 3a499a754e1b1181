// Package authenticator is the paired device: it keeps TOTP secrets, applies
// the options sent by the companion and produces the current token.
package authenticator

import (
	"errors"
	"sync"
	"time"

	"github.com/komari-monitor/companion/internal/options"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const Period = 30

var ErrNoSecrets = errors.New("authenticator: no secrets configured")

var tokenOpts = totp.ValidateOpts{
	Period:    Period,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// Vibration 是倒计时到达特定秒数时的提醒
type Vibration int

const (
	VibrateNone Vibration = iota
	VibrateDoublePulse
	VibrateShortPulse
)

func (v Vibration) String() string {
	switch v {
	case VibrateDoublePulse:
		return "double pulse"
	case VibrateShortPulse:
		return "short pulse"
	default:
		return "none"
	}
}

type Authenticator struct {
	mu       sync.Mutex
	secrets  []Secret
	current  int
	timezone float64
	vibWarn  bool
	vibRenew bool
}

func New(sf *SecretsFile) *Authenticator {
	a := &Authenticator{timezone: ParseTimezone(DefaultTimezone)}
	if sf != nil {
		a.secrets = append(a.secrets, sf.Secrets...)
		a.timezone = ParseTimezone(sf.Timezone)
	}
	return a
}

// Apply 应用配对手机发来的 options
func (a *Authenticator) Apply(o options.Options) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.timezone = ParseTimezone(o.Timezone)
	a.vibWarn = o.VibWarn
	a.vibRenew = o.VibRenew
}

func (a *Authenticator) Timezone() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timezone
}

// Current 返回当前选中的 secret
func (a *Authenticator) Current() (Secret, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.secrets) == 0 {
		return Secret{}, ErrNoSecrets
	}
	return a.secrets[a.current], nil
}

// Next 切换到下一个 secret，末尾回到开头
func (a *Authenticator) Next() (Secret, error) {
	return a.step(1)
}

// Prev 切换到上一个 secret
func (a *Authenticator) Prev() (Secret, error) {
	return a.step(-1)
}

func (a *Authenticator) step(d int) (Secret, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.secrets)
	if n == 0 {
		return Secret{}, ErrNoSecrets
	}
	a.current = (a.current + d + n) % n
	return a.secrets[a.current], nil
}

// LocalClock 把真实时间换算成设备按 timezone 显示的墙上时间
func (a *Authenticator) LocalClock(now time.Time) time.Time {
	offset := time.Duration(a.Timezone() * float64(time.Hour))
	return now.UTC().Add(offset)
}

// Code 计算当前 secret 的 6 位 token。
// local 是设备的墙上时间，减去时区偏移后得到 unix 时间
func (a *Authenticator) Code(local time.Time) (string, error) {
	sec, err := a.Current()
	if err != nil {
		return "", err
	}
	wall := time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), 0, time.UTC).Unix()
	adjustment := int64(3600 * a.Timezone())
	return totp.GenerateCodeCustom(sec.Key, unixTime(wall-adjustment), tokenOpts)
}

// SecondsRemaining 当前 token 剩余的有效秒数，取值 1..30
func SecondsRemaining(t time.Time) int {
	return Period - t.Second()%Period
}

// Alert 返回剩余 remaining 秒时应触发的提醒
func (a *Authenticator) Alert(remaining int) Vibration {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case remaining == 5 && a.vibWarn:
		return VibrateDoublePulse
	case remaining == Period && a.vibRenew:
		return VibrateShortPulse
	}
	return VibrateNone
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
