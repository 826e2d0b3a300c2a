// Package wled provides an HTTP client for the local API of WLED lighting
// controllers.
//
// The client covers the handful of endpoints a bulk firmware flasher needs:
//
//   - GET /            reachability probe (HTTP 200 means the web server is up)
//   - POST /update     multipart firmware upload
//   - POST /json/state state document (power, brightness, segment colours)
//   - GET /json/info   firmware version and hardware details
//   - /ws              websocket that pushes the full state, used to read it back
//
// # Usage Example
//
//	client := wled.NewClient("192.168.1.40", 80)
//
//	if !client.Probe(ctx, 2*time.Second) {
//	    return errors.New("device offline")
//	}
//
//	resp, err := client.UploadFirmware(ctx, "wled.bin", wled.FieldUpdate, 60*time.Second)
//	if wled.IsConnectionDropped(err) {
//	    // the device is rebooting into the new image
//	}
//
//	_, err = client.SetState(ctx, wled.DefaultBaseline().ToState(), 0)
//
// # Firmware Upload Field Names
//
// Firmware up to 0.15 reads the image from the "update" form field
// (FieldUpdate); 0.16 and later read "file" (FieldFile). The client does not
// choose between them; the caller passes the field name per request.
//
// # Error Handling
//
// Transport failures are returned as *DeviceError, classified by
// ClassifyNetworkError. ErrTypeConnectionDropped marks an established
// connection that the device reset or closed, which during a firmware upload
// is the normal signature of a device rebooting into new firmware.
//
// # Thread Safety
//
// Client instances hold no per-request state and are safe for concurrent use.
package wled
