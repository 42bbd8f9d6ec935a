// Package config loads SimpleWeb settings from an optional YAML file and the
// environment.
//
// The file uses the Section:Key layout of the application settings:
//
//	Storage:
//	  Type: 0            # 0 = Local, 1 = Remote (names are accepted too)
//	  FileName: test-file.jpg
//	  BaseDir: ./data/uploads
//	  ConnectionString: ""
//	Upload:
//	  MaxBytes: 33554432
//	HealthChecks:
//	  ProbeTimeout: 5s
//	  DegradedAfter: 2s
//	  Dependencies:
//	    - Name: api
//	      URL: http://api.internal/healthz
//	APPINSIGHTS_CONNECTIONSTRING: ""
//
// Environment variables override file values using a double underscore as the
// section separator (Storage__Type, Storage__FileName, ...).
package config
