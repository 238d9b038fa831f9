package daemon_test

import trackingdto "webtally/internal/modules/tracking/dto"

func trackingEvent(contextID, eventType, rawURL string) trackingdto.EventInput {
	return trackingdto.EventInput{ContextID: contextID, Type: eventType, URL: rawURL}
}
