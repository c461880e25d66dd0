package shipping

import (
	"sort"
	"strconv"
	"strings"
)

const cacheKeyPrefix = "pf:rates:"

// CacheKey is destination plus the sorted "<id>x<qty>" cart signature, so
// item order does not change the key.
func CacheKey(req QuoteRequest) string {
	dest := strings.Join([]string{
		req.Recipient.CountryCode,
		req.Recipient.Zip,
		req.Recipient.City,
		req.Recipient.StateCode,
	}, "|")

	sig := make([]string, len(req.Items))
	for i, item := range req.Items {
		sig[i] = string(item.VariantID) + "x" + strconv.Itoa(item.Quantity)
	}
	sort.Strings(sig)

	return cacheKeyPrefix + dest + ":" + strings.Join(sig, ",")
}
