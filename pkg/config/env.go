package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// envVar binds one environment variable to a Config field.
type envVar struct {
	name  string
	apply func(c *Config, v string) error
}

func str(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func integer(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func float(dst func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		*dst(c) = f
		return nil
	}
}

func boolean(dst func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			*dst(c) = true
		default:
			*dst(c) = false
		}
		return nil
	}
}

func duration(dst func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

// envVars lists every supported environment override. Names follow the
// deployment variables operators already use for the service.
var envVars = []envVar{
	{"HOST_TEMP_PATH", str(func(c *Config) *string { return &c.Paths.Temp })},
	{"HOST_OUTPUT_PATH", str(func(c *Config) *string { return &c.Paths.Output })},

	{"BASE_VIEWPORT_WIDTH", integer(func(c *Config) *int { return &c.Viewport.BaseWidth })},
	{"BASE_VIEWPORT_HEIGHT", integer(func(c *Config) *int { return &c.Viewport.BaseHeight })},
	{"MAX_VIEWPORT_WIDTH", integer(func(c *Config) *int { return &c.Viewport.MaxWidth })},
	{"MAX_VIEWPORT_HEIGHT", integer(func(c *Config) *int { return &c.Viewport.MaxHeight })},
	{"IMAGE_QUALITY", str(func(c *Config) *string { return &c.Viewport.Quality })},
	{"DEVICE_SCALE_FACTOR", float(func(c *Config) *float64 { return &c.Viewport.DeviceScaleFactor })},

	{"RENDER_ENGINE", str(func(c *Config) *string { return &c.Render.Engine })},
	{"MARKMAP_BIN", str(func(c *Config) *string { return &c.Render.MarkmapBin })},
	{"BROWSER_BIN", str(func(c *Config) *string { return &c.Render.BrowserBin })},
	{"BROWSER_NO_SANDBOX", boolean(func(c *Config) *bool { return &c.Render.NoSandbox })},
	{"RENDER_READINESS_TIMEOUT", duration(func(c *Config) *time.Duration { return &c.Render.ReadinessTimeout })},
	{"TEMP_MAX_AGE", duration(func(c *Config) *time.Duration { return &c.Render.CleanupMaxAge })},

	{"STORAGE_TYPE", str(func(c *Config) *string { return &c.Storage.Type })},
	{"LOCAL_STORAGE_URL_PREFIX", str(func(c *Config) *string { return &c.Storage.Local.URLPrefix })},

	{"ALIYUN_OSS_ACCESS_KEY_ID", str(func(c *Config) *string { return &c.Storage.OSS.AccessKeyID })},
	{"ALIYUN_OSS_ACCESS_KEY_SECRET", str(func(c *Config) *string { return &c.Storage.OSS.AccessKeySecret })},
	{"ALIYUN_OSS_ENDPOINT", str(func(c *Config) *string { return &c.Storage.OSS.Endpoint })},
	{"ALIYUN_OSS_BUCKET_NAME", str(func(c *Config) *string { return &c.Storage.OSS.Bucket })},
	{"ALIYUN_OSS_REGION", str(func(c *Config) *string { return &c.Storage.OSS.Region })},
	{"ALIYUN_OSS_URL_PREFIX", str(func(c *Config) *string { return &c.Storage.OSS.URLPrefix })},

	{"HUAWEI_ACCESS_KEY_ID", str(func(c *Config) *string { return &c.Storage.OBS.AccessKeyID })},
	{"HUAWEI_SECRET_ACCESS_KEY", str(func(c *Config) *string { return &c.Storage.OBS.SecretAccessKey })},
	{"HUAWEI_ENDPOINT", str(func(c *Config) *string { return &c.Storage.OBS.Endpoint })},
	{"HUAWEI_BUCKET_NAME", str(func(c *Config) *string { return &c.Storage.OBS.Bucket })},
	{"HUAWEI_REGION", str(func(c *Config) *string { return &c.Storage.OBS.Region })},
	{"HUAWEI_URL_PREFIX", str(func(c *Config) *string { return &c.Storage.OBS.URLPrefix })},

	{"MINIO_ENDPOINT", str(func(c *Config) *string { return &c.Storage.MinIO.Endpoint })},
	{"MINIO_ACCESS_KEY", str(func(c *Config) *string { return &c.Storage.MinIO.AccessKey })},
	{"MINIO_SECRET_KEY", str(func(c *Config) *string { return &c.Storage.MinIO.SecretKey })},
	{"MINIO_BUCKET_NAME", str(func(c *Config) *string { return &c.Storage.MinIO.Bucket })},
	{"MINIO_SECURE", boolean(func(c *Config) *bool { return &c.Storage.MinIO.Secure })},
	{"MINIO_URL_PREFIX", str(func(c *Config) *string { return &c.Storage.MinIO.URLPrefix })},

	{"AWS_ACCESS_KEY_ID", str(func(c *Config) *string { return &c.Storage.S3.AccessKeyID })},
	{"AWS_SECRET_ACCESS_KEY", str(func(c *Config) *string { return &c.Storage.S3.SecretAccessKey })},
	{"AWS_DEFAULT_REGION", str(func(c *Config) *string { return &c.Storage.S3.Region })},
	{"AWS_S3_BUCKET_NAME", str(func(c *Config) *string { return &c.Storage.S3.Bucket })},
	{"AWS_S3_URL_PREFIX", str(func(c *Config) *string { return &c.Storage.S3.URLPrefix })},

	{"AZURE_STORAGE_ACCOUNT_NAME", str(func(c *Config) *string { return &c.Storage.Azure.AccountName })},
	{"AZURE_STORAGE_ACCOUNT_KEY", str(func(c *Config) *string { return &c.Storage.Azure.AccountKey })},
	{"AZURE_STORAGE_CONTAINER_NAME", str(func(c *Config) *string { return &c.Storage.Azure.Container })},
	{"AZURE_STORAGE_URL_PREFIX", str(func(c *Config) *string { return &c.Storage.Azure.URLPrefix })},

	{"GCS_PROJECT_ID", str(func(c *Config) *string { return &c.Storage.GCS.ProjectID })},
	{"GCS_BUCKET_NAME", str(func(c *Config) *string { return &c.Storage.GCS.Bucket })},
	{"GCS_CREDENTIALS_FILE", str(func(c *Config) *string { return &c.Storage.GCS.CredentialsFile })},
	{"GCS_CREDENTIALS_JSON", str(func(c *Config) *string { return &c.Storage.GCS.CredentialsJSON })},
	{"GCS_URL_PREFIX", str(func(c *Config) *string { return &c.Storage.GCS.URLPrefix })},

	{"CACHE_BACKEND", str(func(c *Config) *string { return &c.Cache.Backend })},
	{"CACHE_DIR", str(func(c *Config) *string { return &c.Cache.Dir })},
	{"REDIS_ADDR", str(func(c *Config) *string { return &c.Cache.RedisAddr })},
	{"REDIS_PASSWORD", str(func(c *Config) *string { return &c.Cache.RedisPassword })},
	{"REDIS_DB", integer(func(c *Config) *int { return &c.Cache.RedisDB })},

	{"HISTORY_BACKEND", str(func(c *Config) *string { return &c.History.Backend })},
	{"MONGODB_URI", str(func(c *Config) *string { return &c.History.URI })},
	{"MONGODB_DATABASE", str(func(c *Config) *string { return &c.History.Database })},

	{"SERVER_ADDR", str(func(c *Config) *string { return &c.Server.Addr })},
	{"SERVER_MAX_CONCURRENT", integer(func(c *Config) *int { return &c.Server.MaxConcurrent })},
}

// EnvNames returns the names of all supported environment overrides.
func EnvNames() []string {
	names := make([]string, len(envVars))
	for i, e := range envVars {
		names[i] = e.name
	}
	return names
}

func applyEnv(c *Config, lookup LookupFunc) error {
	for _, e := range envVars {
		v, ok := lookup(e.name)
		if !ok || v == "" {
			continue
		}
		if err := e.apply(c, v); err != nil {
			return fmt.Errorf("env %s=%q: %w", e.name, v, err)
		}
	}
	return nil
}
