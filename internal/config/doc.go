// Package config loads and saves the wledflash configuration file.
//
// The file is YAML and holds the discovery window, the upload retry policy,
// the reboot wait, the baseline pushed after flashing and the fleet
// concurrency limit. Every value has a default, so a missing file or a
// missing section is fine. Command line flags override file values.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/wledflash/config.yaml or $HOME/.config/wledflash/config.yaml
//   - macOS: $HOME/.config/wledflash/config.yaml
//   - Windows: %LOCALAPPDATA%\wledflash\config.yaml
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	uploader := ota.NewUploader(cfg.UploadPolicy())
//	waiter := cfg.RebootWaiter()
//
// Errors caused by the file content wrap ErrConfig.
package config
