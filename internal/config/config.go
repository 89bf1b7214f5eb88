package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"5000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBType     string `env:"DBType" envDefault:"sqlite"`
	DSNURL     string `env:"DSN_URL" envDefault:""`
	DBUser     string `env:"DBUser" envDefault:""`
	DBPassword string `env:"DBPassword" envDefault:""`
	DBAddr     string `env:"DBAddr" envDefault:""`
	DBName     string `env:"DBName" envDefault:"wardrobe"`
	DBPath     string `env:"DBPath" envDefault:"datas/wardrobe.db"`
	DBPort     string `env:"DBPort" envDefault:"3306"`

	StorageType          string `env:"STORAGE_TYPE" envDefault:"local"`
	StorageLocalDir      string `env:"STORAGE_LOCAL_DIR" envDefault:"datas/objects"`
	StoragePublicBaseURL string `env:"STORAGE_PUBLIC_BASE_URL" envDefault:"/files"`

	// S3 兼容存储配置
	StorageS3Region          string `env:"STORAGE_S3_REGION"`
	StorageS3Bucket          string `env:"STORAGE_S3_BUCKET"`
	StorageS3Prefix          string `env:"STORAGE_S3_PREFIX"`
	StorageS3Endpoint        string `env:"STORAGE_S3_ENDPOINT"`
	StorageS3AccessKeyID     string `env:"STORAGE_S3_ACCESS_KEY_ID"`
	StorageS3SecretAccessKey string `env:"STORAGE_S3_SECRET_ACCESS_KEY"`
	StorageS3SessionToken    string `env:"STORAGE_S3_SESSION_TOKEN"`
	StorageS3ForcePathStyle  bool   `env:"STORAGE_S3_FORCE_PATH_STYLE" envDefault:"false"`

	// 阿里云 OSS 存储配置
	StorageOSSEndpoint        string `env:"STORAGE_OSS_ENDPOINT"`
	StorageOSSBucket          string `env:"STORAGE_OSS_BUCKET"`
	StorageOSSPrefix          string `env:"STORAGE_OSS_PREFIX"`
	StorageOSSAccessKeyID     string `env:"STORAGE_OSS_ACCESS_KEY_ID"`
	StorageOSSAccessKeySecret string `env:"STORAGE_OSS_ACCESS_KEY_SECRET"`

	// 腾讯云 COS 存储配置
	StorageCOSBucketURL string `env:"STORAGE_COS_BUCKET_URL"`
	StorageCOSPrefix    string `env:"STORAGE_COS_PREFIX"`
	StorageCOSSecretID  string `env:"STORAGE_COS_SECRET_ID"`
	StorageCOSSecretKey string `env:"STORAGE_COS_SECRET_KEY"`

	// Cloudflare R2 存储配置
	StorageR2AccountID       string `env:"STORAGE_R2_ACCOUNT_ID"`
	StorageR2Endpoint        string `env:"STORAGE_R2_ENDPOINT"`
	StorageR2Region          string `env:"STORAGE_R2_REGION" envDefault:"auto"`
	StorageR2Bucket          string `env:"STORAGE_R2_BUCKET"`
	StorageR2Prefix          string `env:"STORAGE_R2_PREFIX"`
	StorageR2AccessKeyID     string `env:"STORAGE_R2_ACCESS_KEY_ID"`
	StorageR2SecretAccessKey string `env:"STORAGE_R2_SECRET_ACCESS_KEY"`

	// MinIO 存储配置
	StorageMinioEndpoint  string `env:"STORAGE_MINIO_ENDPOINT"`
	StorageMinioBucket    string `env:"STORAGE_MINIO_BUCKET"`
	StorageMinioPrefix    string `env:"STORAGE_MINIO_PREFIX"`
	StorageMinioAccessKey string `env:"STORAGE_MINIO_ACCESS_KEY"`
	StorageMinioSecretKey string `env:"STORAGE_MINIO_SECRET_KEY"`
	StorageMinioSecure    bool   `env:"STORAGE_MINIO_SECURE" envDefault:"false"`

	// 背景去除：rembg | none
	BackgroundRemover        string `env:"BACKGROUND_REMOVER" envDefault:"rembg"`
	RembgURL                 string `env:"REMBG_URL" envDefault:"http://127.0.0.1:7000"`
	RembgModel               string `env:"REMBG_MODEL" envDefault:"u2net"`
	RembgAlphaMatting        bool   `env:"REMBG_ALPHA_MATTING" envDefault:"true"`
	RembgBackgroundThreshold int    `env:"REMBG_BACKGROUND_THRESHOLD" envDefault:"50"`

	// 分类模型：category 支持 tfserving | volcengine | openrouter，color 支持 knn | tfserving | volcengine | openrouter
	CategoryClassifier  string `env:"CATEGORY_CLASSIFIER" envDefault:"tfserving"`
	ColorClassifier     string `env:"COLOR_CLASSIFIER" envDefault:"knn"`
	TFServingURL        string `env:"TFSERVING_URL" envDefault:"http://127.0.0.1:8501"`
	TFServingCategoryID string `env:"TFSERVING_CATEGORY_MODEL" envDefault:"trained_model"`
	TFServingColorID    string `env:"TFSERVING_COLOR_MODEL" envDefault:"knn_model"`
	ColorKNNDataset     string `env:"COLOR_KNN_DATASET" envDefault:""`
	ColorKNNNeighbours  int    `env:"COLOR_KNN_K" envDefault:"5"`
	InferenceTimeoutSec int    `env:"INFERENCE_TIMEOUT_SECONDS" envDefault:"60"`

	VolcengineAPIKey      string `env:"VOLCENGINE_API_KEY" envDefault:""`
	VolcengineVisionModel string `env:"VOLCENGINE_VISION_MODEL" envDefault:"doubao-1-5-vision-pro-32k-250115"`

	// OpenAI 兼容接口（OpenRouter、AiHubMix 等）
	OpenRouterURL         string `env:"OPENROUTER_URL" envDefault:"https://openrouter.ai/api/v1/chat/completions"`
	OpenRouterAPIKey      string `env:"OPENROUTER_API_KEY" envDefault:""`
	OpenRouterVisionModel string `env:"OPENROUTER_VISION_MODEL" envDefault:"google/gemini-2.5-flash"`

	MaxUploadMB int64 `env:"MAX_UPLOAD_MB" envDefault:"16"`

	JWTSecret            string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTIssuer            string `env:"JWT_ISSUER" envDefault:"wardrobe"`
	JWTExpirationMinutes int    `env:"JWT_EXPIRATION_MINUTES" envDefault:"1440"`
	AuthRequireUser      bool   `env:"AUTH_REQUIRE_USER" envDefault:"false"`

	// 首次启动时创建的管理员账户，留空则跳过
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:""`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:""`
}

func ParseConfig() (Config, error) {
	var Conf Config
	err := env.Parse(&Conf)
	if err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	logrus.Debugf("%#v\n", Conf)
	return Conf, nil
}
