package scraper

import (
	"strconv"
	"strings"
	"time"
)

// TimestampLayout — формат времени комментария в таблице (YY/MM/DD HH:MM)
const TimestampLayout = "06/01/02 15:04"

// Секунды не парсятся: всегда вычитаем фиксированные 10 секунд
const secondsAgoOffset = 10 * time.Second

type relativeUnit struct {
	marker string
	unit   time.Duration
}

// Порядок важен: первое совпадение выигрывает
var relativeUnits = []relativeUnit{
	{marker: "分前", unit: time.Minute},
	{marker: "時間前", unit: time.Hour},
	{marker: "日前", unit: 24 * time.Hour},
}

const secondsAgoMarker = "秒前"

// ParseRelative переводит "5分前" / "3時間前" / "2日前" / "30秒前" в абсолютное время.
// Никогда не возвращает ошибку: при любой проблеме отдаёт now.
func ParseRelative(text string, now time.Time) time.Time {
	for _, ru := range relativeUnits {
		if !strings.Contains(text, ru.marker) {
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(text, ru.marker, "")))
		if err != nil {
			return now
		}

		return now.Add(-time.Duration(n) * ru.unit)
	}

	if strings.Contains(text, secondsAgoMarker) {
		return now.Add(-secondsAgoOffset)
	}

	return now
}

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
