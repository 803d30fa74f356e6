package domain

import "time"

// DateFormat 全库统一的日期格式
const DateFormat = "2006-01-02"

// Today 当前 UTC 日期
func Today() string {
	return time.Now().UTC().Format(DateFormat)
}

// DaysBefore 返回 date 往前数 n 天的日期，date 非法时原样返回
func DaysBefore(date string, n int) string {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, -n).Format(DateFormat)
}
