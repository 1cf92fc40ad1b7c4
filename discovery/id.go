package discovery

import (
	"strings"

	"github.com/nlowe/goveemqtt/mqtt"
)

// IDSep joins the parts of a device discovery id and replaces characters that are not allowed in one.
const IDSep = "__"

// IDSanitizer makes a vendor identifier such as a MAC address usable as a discovery id.
var IDSanitizer = strings.NewReplacer(
	" ", IDSep,
	":", IDSep,
	".", IDSep,
	"+", IDSep,
	"#", IDSep,
	mqtt.TopicSeparator, IDSep,
)
