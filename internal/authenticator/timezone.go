package authenticator

// ParseTimezone 宽松地解析小时偏移：仅识别开头的 '-'、数字与 '.'，其他字符忽略。
// 无法识别的输入得到 0
func ParseTimezone(s string) float64 {
	var rez, fact float64 = 0, 1
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
		fact = -1
	}
	pointSeen := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			pointSeen = true
			continue
		}
		if c >= '0' && c <= '9' {
			if pointSeen {
				fact /= 10
			}
			rez = rez*10 + float64(c-'0')
		}
	}
	return rez * fact
}
