// Package catalog holds the product shape returned by the store's chat
// endpoint together with the small display helpers used by every renderer.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// CurrencySymbol is prefixed to every displayed price.
const CurrencySymbol = "₹"

// MaxRating is the number of stars a rating is drawn with.
const MaxRating = 5

// Product is a catalog item as serialized by the chat endpoint.
// Only the display fields are read; nothing here is validated.
type Product struct {
	ID              int      `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Category        string   `json:"category,omitempty"`
	Price           Price    `json:"price"`
	Brand           string   `json:"brand"`
	ImageURL        string   `json:"image_url,omitempty"`
	Color           string   `json:"color,omitempty"`
	Material        string   `json:"material,omitempty"`
	AvailableSizes  SizeList `json:"available_sizes,omitempty"`
	InStock         bool     `json:"in_stock"`
	Rating          float64  `json:"rating"`
	NumReviews      int      `json:"num_reviews"`
	SimilarityScore float64  `json:"similarity_score"`
}

// Price keeps the endpoint's textual price as-is. Decimal fields arrive as
// JSON strings ("1299.00"), but plain numbers are accepted too.
type Price string

// UnmarshalJSON accepts a JSON string, a JSON number, or null.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "decoding price string")
		}
		*p = Price(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrapf(err, "decoding price %s", string(data))
	}
	*p = Price(n.String())
	return nil
}

// String returns the price with the currency symbol, or an empty string
// when the endpoint sent no price.
func (p Price) String() string {
	if p == "" {
		return ""
	}
	return CurrencySymbol + string(p)
}

// SizeList holds a product's sizes as display text. The store keeps them in
// a free-form JSON list, so numbers ("[7, 8, 9]") are accepted alongside
// strings.
type SizeList []string

// UnmarshalJSON accepts a list of strings and numbers, or null.
func (l *SizeList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decoding available sizes")
	}
	out := make(SizeList, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if bytes.Equal(item, []byte("null")) {
			continue
		}
		if len(item) > 0 && item[0] == '"' {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return errors.Wrap(err, "decoding size")
			}
			out = append(out, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return errors.Wrapf(err, "decoding size %s", string(item))
		}
		out = append(out, n.String())
	}
	*l = out
	return nil
}

// Stars is a rating split into drawable parts. Full+Half+Empty is always
// MaxRating.
type Stars struct {
	Full  int
	Half  bool
	Empty int
}

// RatingStars splits a rating into full, half and empty stars. A half star
// is drawn when the fractional part is at least 0.5. Ratings outside
// [0, MaxRating] are clamped.
func RatingStars(rating float64) Stars {
	if math.IsNaN(rating) || rating < 0 {
		rating = 0
	}
	if rating > MaxRating {
		rating = MaxRating
	}
	full := int(math.Floor(rating))
	half := rating-float64(full) >= 0.5
	empty := MaxRating - full
	if half {
		empty--
	}
	return Stars{Full: full, Half: half, Empty: empty}
}

// SimilarityPercent converts a 0..1 relevance score to a whole percentage,
// rounding halves up.
func SimilarityPercent(score float64) int {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return int(math.Floor(score*100 + 0.5))
}

// DetailPath is the site-relative path of a product's detail page.
func DetailPath(id int) string {
	return fmt.Sprintf("/products/%d/", id)
}

// DetailURL joins the site root with the product's detail path.
func DetailURL(siteURL string, id int) string {
	return strings.TrimRight(siteURL, "/") + DetailPath(id)
}

// Stars returns the product's rating as drawable stars.
func (p Product) Stars() Stars {
	return RatingStars(p.Rating)
}

// Similarity returns the product's match percentage.
func (p Product) Similarity() int {
	return SimilarityPercent(p.SimilarityScore)
}

// Sizes returns the available sizes joined for display.
func (p Product) Sizes() string {
	return strings.Join(p.AvailableSizes, ", ")
}
