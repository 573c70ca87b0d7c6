// Package template renders the configuration files wpstack writes to the
// host from templates embedded in the binary.
//
// # Templates
//
//	nginx/wordpress.conf.tmpl      virtual host with FastCGI page cache
//	nginx/fastcgi-cache.conf.tmpl  cache zone shared by all sites, in conf.d
//	wordpress/wp-config.php.tmpl
//
// # Rendering
//
// Render is a pure substitution of named placeholders. Every placeholder a
// template references must have a non-blank value, otherwise Render returns
// an *errors.TemplateError naming the placeholder. Rendering the same values
// twice is byte-identical.
//
//	rc, err := template.RenderVHost(cfg, settings)
//	if err != nil {
//	    return err
//	}
//	// rc.Content contains "server_name example.com www.example.com;"
//
// No escaping happens in Render. Values are trusted operator input;
// RenderWPConfig escapes database credentials for PHP string literals before
// rendering.
package template
