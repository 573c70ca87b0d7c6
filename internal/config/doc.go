// Package config holds the two kinds of configuration wpstack works with.
//
// ProvisioningConfig is the set of operator answers (domain, database
// credentials, admin email, OS user). It is built once by the input package,
// has defaults applied to blank answers, is validated with
// go-playground/validator and is then passed around by value. Its String,
// LogFields and MarshalLogObject methods never expose the two passwords.
//
//	cfg, err := config.New(config.ProvisioningConfig{
//	    Domain:       "example.com",
//	    DBPassword:   dbPass,
//	    AdminEmail:   "admin@example.com",
//	    UserPassword: userPass,
//	})
//	// cfg.DBName == "wordpress", cfg.DBUser == "wordpress", cfg.Username == "wpadmin"
//
// Settings are tool knobs that do not come from the operator: PHP version,
// web root, Nginx directories, cache zone, remote URLs. They are loaded with
// viper from defaults, /etc/wpstack/config.yaml and WPSTACK_* environment
// variables; /etc/wpstack/wpstack.env is read into the environment first.
//
// Example config.yaml:
//
//	php_version: "8.2"
//	web_root: /srv/www
//	cache_zone: SITECACHE
//	http_timeout: 45s
package config
