package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"
)

// NetworkHandler serves the map views.
type NetworkHandler struct {
	networks NetworkService
	log      *logrus.Logger
}

// NewNetworkHandler creates a NetworkHandler.
func NewNetworkHandler(networks NetworkService, log *logrus.Logger) *NetworkHandler {
	return &NetworkHandler{networks: networks, log: log}
}

// List handles GET /api/v1/networks.
func (h *NetworkHandler) List(c *gin.Context) {
	views, err := h.networks.ListNetworks(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, "listing networks", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"networks": views, "count": len(views)})
}

// GeoJSON handles GET /api/v1/networks.geojson.
// Each network becomes a Point feature identified by its BSSID.
func (h *NetworkHandler) GeoJSON(c *gin.Context) {
	views, err := h.networks.ListNetworks(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, "listing networks", err)
		return
	}

	fc := geojson.NewFeatureCollection()

	for _, v := range views {
		f := geojson.NewFeature(orb.Point{v.Lon, v.Lat})
		f.ID = v.BSSID
		f.Properties["bssid"] = v.BSSID
		f.Properties["ssid"] = v.SSID
		f.Properties["frequency"] = v.Frequency
		f.Properties["capabilities"] = v.Capabilities
		f.Properties["lasttime"] = v.LastSeen
		f.Properties["type"] = v.Type
		f.Properties["bestlevel"] = v.BestLevel
		f.Properties["observations"] = v.Observations
		f.Properties["ap_count"] = v.APCount
		f.Properties["note"] = v.Note

		if v.Accuracy != nil {
			f.Properties["accuracy"] = *v.Accuracy
		}

		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		respondServiceError(c, h.log, "encoding geojson", err)
		return
	}

	c.Data(http.StatusOK, "application/geo+json", data)
}

// Stats handles GET /api/v1/stats.
func (h *NetworkHandler) Stats(c *gin.Context) {
	stats, err := h.networks.ComputeStats(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, "computing stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
