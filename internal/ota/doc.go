// Package ota implements the per-device flash-and-recover protocol: upload
// a firmware image, wait for the device to reboot, then push a baseline
// configuration.
//
// # Upload
//
// Uploader.Upload makes up to Policy.MaxAttempts attempts. Each attempt:
//
//  1. probes GET / and skips the attempt if the device does not answer 200
//  2. POSTs the image with form field "update"
//  3. on an ambiguous reply, POSTs again with form field "file", where any
//     HTTP 200 is taken as accepted
//
// Replies are interpreted by Classify. WLED reboots into the new image as soon
// as it has written it, so a connection that is reset or closed mid-reply is
// treated as success, as is a read timeout once the request was fully sent.
//
// # Reboot and Configuration
//
// RebootWaiter.AwaitReboot polls the device until it answers again, bounded by
// a deadline. Configurator.Configure POSTs the baseline to /json/state; any
// HTTP 200 counts as applied.
//
// # Testing
//
// All three components take a DeviceFactory, so tests can substitute a fake
// Device or point a real wled.Client at an httptest server.
package ota
