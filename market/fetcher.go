// Package market fetches quotes and daily K-line history from the Sina
// finance API, the data source for symbol-driven forecasts.
package market

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

// FetchTick fetches the latest quote for a single stock symbol. The Sina
// response body is GBK encoded.
func FetchTick(symbol string) (*Tick, error) {
	url := fmt.Sprintf("http://hq.sinajs.cn/list=%s", symbol)
	req, _ := http.NewRequest("GET", url, nil)
	req.Header.Set("Referer", "http://finance.sina.com.cn")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	utf8Reader := transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder())
	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(string(body), "\"")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid response from sina api")
	}

	data := strings.Split(parts[1], ",")
	if len(data) < 32 {
		return nil, fmt.Errorf("unexpected data format from sina api")
	}

	open, _ := strconv.ParseFloat(data[1], 64)
	high, _ := strconv.ParseFloat(data[4], 64)
	low, _ := strconv.ParseFloat(data[5], 64)
	curr, _ := strconv.ParseFloat(data[3], 64)
	volume, _ := strconv.ParseInt(data[8], 10, 64)

	timestamp, _ := time.ParseInLocation("2006-01-02 15:04:05", data[30]+" "+data[31], time.Local)

	return &Tick{
		Symbol:    symbol,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     curr,
		Volume:    volume,
		Timestamp: timestamp,
	}, nil
}

type sinaKLine struct {
	Day    string `json:"day"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

// FetchHistoricalData fetches daily K-line history for a symbol, oldest first.
func FetchHistoricalData(symbol string, days int) ([]KLine, error) {
	// scale=240 is daily
	url := fmt.Sprintf("http://money.finance.sina.com.cn/quotes_service/api/json_v2.php/CN_MarketData.getKLineData?symbol=%s&scale=240&ma=no&datalen=%d", symbol, days)

	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sinaData []sinaKLine
	if err := json.NewDecoder(resp.Body).Decode(&sinaData); err != nil {
		return nil, fmt.Errorf("decoding kline response: %w", err)
	}

	klines := make([]KLine, len(sinaData))
	for i, d := range sinaData {
		open, _ := strconv.ParseFloat(d.Open, 64)
		high, _ := strconv.ParseFloat(d.High, 64)
		low, _ := strconv.ParseFloat(d.Low, 64)
		closePrice, _ := strconv.ParseFloat(d.Close, 64)
		volume, _ := strconv.ParseInt(d.Volume, 10, 64)

		var timestamp time.Time
		if len(d.Day) > 10 {
			timestamp, _ = time.ParseInLocation("2006-01-02 15:04:05", d.Day, time.Local)
		} else {
			timestamp, _ = time.ParseInLocation("2006-01-02", d.Day, time.Local)
		}

		klines[i] = KLine{
			Symbol:    symbol,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			Timestamp: timestamp,
		}
	}

	return klines, nil
}

// FetchHistoricalCloses returns just the close series for a symbol, in
// chronological order, ready to feed a forecaster.
func FetchHistoricalCloses(symbol string, days int) ([]float64, error) {
	klines, err := FetchHistoricalData(symbol, days)
	if err != nil {
		return nil, err
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("no historical data for %s", symbol)
	}
	closes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
	}
	return closes, nil
}
