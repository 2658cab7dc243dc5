package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/internal/config"
)

var envVars = []string{
	"API_URL", "UPSTREAM_TIMEOUT", "HOST", "PORT", "GIN_MODE",
	"READ_TIMEOUT", "WRITE_TIMEOUT", "SHUTDOWN_TIMEOUT",
	"LOG_LEVEL", "LOG_FORMAT", "OTEL_EXPORTER_OTLP_ENDPOINT", "ENVIRONMENT",
}

var _ = Describe("Config", func() {
	var (
		tempDir string
		saved   map[string]string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())

		saved = map[string]string{}
		for _, k := range envVars {
			if v, ok := os.LookupEnv(k); ok {
				saved[k] = v
			}
			os.Unsetenv(k)
		}
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
		for _, k := range envVars {
			os.Unsetenv(k)
		}
		for k, v := range saved {
			os.Setenv(k, v)
		}
	})

	Describe("LoadFiles", func() {
		Context("without API_URL", func() {
			It("should refuse to load", func() {
				cfg, err := config.LoadFiles()
				Expect(err).To(MatchError(config.ErrMissingBaseURL))
				Expect(cfg).To(BeNil())
			})

			It("should treat a blank API_URL as missing", func() {
				os.Setenv("API_URL", "   ")
				_, err := config.LoadFiles()
				Expect(err).To(MatchError(config.ErrMissingBaseURL))
			})
		})

		Context("with only API_URL set", func() {
			BeforeEach(func() {
				os.Setenv("API_URL", " https://v6.exchangerate-api.com/v6/key/latest/ ")
			})

			It("should apply defaults", func() {
				cfg, err := config.LoadFiles()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Port).To(Equal("5000"))
				Expect(cfg.Server.Host).To(Equal("0.0.0.0"))
				Expect(cfg.Server.Mode).To(Equal(config.ModeDebug))
				Expect(cfg.Server.Addr()).To(Equal("0.0.0.0:5000"))
				Expect(cfg.Upstream.Timeout).To(Equal(10 * time.Second))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelInfo))
				Expect(cfg.Logging.Format).To(Equal(config.LogFormatJSON))
				Expect(cfg.Tracing.Endpoint).To(BeEmpty())
			})

			It("should trim whitespace and trailing slashes from the base URL", func() {
				cfg, err := config.LoadFiles()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Upstream.BaseURL).To(Equal("https://v6.exchangerate-api.com/v6/key/latest"))
			})
		})

		Context("with environment overrides", func() {
			BeforeEach(func() {
				os.Setenv("API_URL", "http://rates.internal:8080/latest")
				os.Setenv("PORT", "8081")
				os.Setenv("GIN_MODE", "release")
				os.Setenv("UPSTREAM_TIMEOUT", "2500ms")
				os.Setenv("LOG_LEVEL", "DEBUG")
				os.Setenv("LOG_FORMAT", "console")
			})

			It("should use them", func() {
				cfg, err := config.LoadFiles()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Port).To(Equal("8081"))
				Expect(cfg.Server.Mode).To(Equal(config.ModeRelease))
				Expect(cfg.Upstream.Timeout).To(Equal(2500 * time.Millisecond))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelDebug))
				Expect(cfg.Logging.Format).To(Equal(config.LogFormatConsole))
			})
		})

		Context("with invalid values", func() {
			BeforeEach(func() {
				os.Setenv("API_URL", "https://rates.example.com")
			})

			It("should reject a non-numeric port", func() {
				os.Setenv("PORT", "http")
				_, err := config.LoadFiles()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("port"))
			})

			It("should reject an unknown log level", func() {
				os.Setenv("LOG_LEVEL", "verbose")
				_, err := config.LoadFiles()
				Expect(err).To(HaveOccurred())
			})

			It("should reject a relative base URL", func() {
				os.Setenv("API_URL", "rates/latest")
				_, err := config.LoadFiles()
				Expect(err).To(HaveOccurred())
				Expect(err).NotTo(MatchError(config.ErrMissingBaseURL))
			})
		})

		Context("with a .env file", func() {
			var envPath string

			BeforeEach(func() {
				envPath = filepath.Join(tempDir, ".env")
				content := "API_URL=https://from-dotenv.example.com/latest\nPORT=7000\n"
				Expect(os.WriteFile(envPath, []byte(content), 0644)).To(Succeed())
			})

			It("should read variables from it", func() {
				cfg, err := config.LoadFiles(envPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Upstream.BaseURL).To(Equal("https://from-dotenv.example.com/latest"))
				Expect(cfg.Server.Port).To(Equal("7000"))
			})

			It("should let the process environment win", func() {
				os.Setenv("PORT", "9000")
				cfg, err := config.LoadFiles(envPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Port).To(Equal("9000"))
			})

			It("should skip a missing file", func() {
				os.Setenv("API_URL", "https://rates.example.com")
				_, err := config.LoadFiles(filepath.Join(tempDir, "missing.env"))
				Expect(err).NotTo(HaveOccurred())
			})
		})
	})
})
