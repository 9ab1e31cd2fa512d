package forecast

import (
	"errors"
	"strconv"
	"strings"
)

// ParsePrices converts a comma-separated string into a price series.
// Token order is preserved and every token must parse as a float.
func ParsePrices(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("price series is empty")
	}

	tokens := strings.Split(s, ",")
	prices := make([]float64, 0, len(tokens))
	for _, token := range tokens {
		value, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
		if err != nil {
			return nil, &InvalidFormatError{Token: strings.TrimSpace(token)}
		}
		prices = append(prices, value)
	}
	return prices, nil
}
