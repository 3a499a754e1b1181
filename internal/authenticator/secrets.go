package authenticator

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pquerna/otp/totp"
)

// DefaultTimezone 是 secrets 文件没有 tz 行时的时区
const DefaultTimezone = "0.0"

type Secret struct {
	Label string
	Key   string // base32，无空格、大写
}

// SecretsFile 是 configuration.txt 的内容
type SecretsFile struct {
	Timezone string
	Secrets  []Secret
}

func LoadSecrets(path string) (*SecretsFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	defer f.Close()
	return ParseSecrets(f)
}

// ParseSecrets 解析 label:secret 格式。
// # 开头或不含 : 的行被忽略；tz:<hours> 设置默认时区
func ParseSecrets(r io.Reader) (*SecretsFile, error) {
	sf := &SecretsFile{Timezone: DefaultTimezone}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") || !strings.Contains(line, ":") {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: expected label:secret", lineNo)
		}
		label, value := parts[0], parts[1]
		if strings.EqualFold(label, "tz") {
			sf.Timezone = value
			continue
		}

		key := strings.ToUpper(strings.ReplaceAll(value, " ", ""))
		if key == "" {
			return nil, fmt.Errorf("line %d: empty secret for %q", lineNo, label)
		}
		if _, err := totp.GenerateCodeCustom(key, unixTime(0), tokenOpts); err != nil {
			return nil, fmt.Errorf("line %d: invalid secret for %q: %w", lineNo, label, err)
		}
		sf.Secrets = append(sf.Secrets, Secret{Label: label, Key: key})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sf, nil
}
