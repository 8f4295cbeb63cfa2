package storage

// Config selects and configures a storage provider. Only the section that
// matches Type is consulted.
type Config struct {
	Type  string      `toml:"type"`
	Local LocalConfig `toml:"local"`
	OSS   OSSConfig   `toml:"aliyun_oss"`
	OBS   OBSConfig   `toml:"huawei_obs"`
	MinIO MinIOConfig `toml:"minio"`
	S3    S3Config    `toml:"amazon_s3"`
	Azure AzureConfig `toml:"azure_blob"`
	GCS   GCSConfig   `toml:"gcs"`
}

// LocalConfig configures the filesystem provider. Root is the output
// directory; URLPrefix is where a static server exposes it.
type LocalConfig struct {
	Root      string `toml:"root"`
	URLPrefix string `toml:"url_prefix"`
}

// OSSConfig configures Aliyun Object Storage Service.
type OSSConfig struct {
	AccessKeyID     string `toml:"access_key_id"`
	AccessKeySecret string `toml:"access_key_secret"`
	Endpoint        string `toml:"endpoint"`
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	URLPrefix       string `toml:"url_prefix"`
}

// OBSConfig configures Huawei Object Storage Service (OceanStor compatible).
type OBSConfig struct {
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Endpoint        string `toml:"endpoint"`
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	URLPrefix       string `toml:"url_prefix"`
}

// MinIOConfig configures a MinIO deployment.
type MinIOConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Secure    bool   `toml:"secure"`
	URLPrefix string `toml:"url_prefix"`
}

// S3Config configures Amazon S3. Empty keys fall back to the default AWS
// credential chain.
type S3Config struct {
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	URLPrefix       string `toml:"url_prefix"`
}

// AzureConfig configures Azure Blob Storage with a shared key.
type AzureConfig struct {
	AccountName string `toml:"account_name"`
	AccountKey  string `toml:"account_key"`
	Container   string `toml:"container"`
	URLPrefix   string `toml:"url_prefix"`
}

// GCSConfig configures Google Cloud Storage. CredentialsJSON wins over
// CredentialsFile; with neither, application default credentials are used.
type GCSConfig struct {
	ProjectID       string `toml:"project_id"`
	Bucket          string `toml:"bucket"`
	CredentialsFile string `toml:"credentials_file"`
	CredentialsJSON string `toml:"credentials_json"`
	URLPrefix       string `toml:"url_prefix"`
}
