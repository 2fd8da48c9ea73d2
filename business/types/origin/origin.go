// Package origin represents the network placement hint a client sends when
// asking for a room token.
package origin

// Default values used when the client gives no preference.
const (
	DefaultISP    = "isp"
	DefaultRegion = "region"
)

// Origin is the isp/region pair forwarded to the media engine.
type Origin struct {
	ISP    string `json:"isp"`
	Region string `json:"region"`
}

// New returns an origin with blank fields replaced by their defaults.
func New(isp string, region string) Origin {
	if isp == "" {
		isp = DefaultISP
	}

	if region == "" {
		region = DefaultRegion
	}

	return Origin{
		ISP:    isp,
		Region: region,
	}
}

// Default returns the origin used when no preference is given.
func Default() Origin {
	return New("", "")
}
