// Package report renders parameters and temperature extremes as plain text.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/i474232898/smhi-observations/internal/weather"
)

// NoDataMessage is printed when no station reported a temperature.
const NoDataMessage = "No temperature data available."

// WriteParameters prints one "{id}, {title} ({summary})" line per parameter.
func WriteParameters(w io.Writer, params []weather.Parameter) error {
	for _, p := range params {
		if _, err := fmt.Fprintf(w, "%d, %s (%s)\n", p.ID, p.Title, p.Summary); err != nil {
			return err
		}
	}
	return nil
}

// WriteExtremes prints the highest and lowest temperature lines.
func WriteExtremes(w io.Writer, ext weather.Extremes) error {
	_, err := fmt.Fprintf(w, "Highest temperature: %s, %s\nLowest temperature: %s, %s\n",
		ext.Highest.Name, FormatTemperature(ext.Highest.Temperature),
		ext.Lowest.Name, FormatTemperature(ext.Lowest.Temperature),
	)
	return err
}

// FormatTemperature prints the shortest decimal form of v, keeping at least
// one fractional digit: 10 -> "10.0", -2.5 -> "-2.5".
func FormatTemperature(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
