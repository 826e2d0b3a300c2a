package urls

// Documentation links shown in help text and troubleshooting tips

// WLEDDocs is the WLED knowledge base
const WLEDDocs = "https://kno.wled.ge/"

// WLEDReleases lists official firmware builds. Pick the binary that matches
// the controller's chip.
const WLEDReleases = "https://github.com/wled/WLED/releases"

// JSONAPI documents the /json/state and /json/info endpoints used after
// flashing.
const JSONAPI = "https://kno.wled.ge/interfaces/json-api/"
