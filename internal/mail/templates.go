package mail

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.html
var embedded embed.FS

var ErrTemplateNotFound = errors.New("mail: template not found")

const templateExt = ".html"

// Source loads raw template text by name (without extension).
type Source interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// FSSource reads templates from a filesystem such as the embedded defaults or os.DirFS.
type FSSource struct {
	FS fs.FS
}

func EmbeddedSource() FSSource {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return FSSource{FS: sub}
}

func (s FSSource) Load(_ context.Context, name string) ([]byte, error) {
	b, err := fs.ReadFile(s.FS, name+templateExt)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrTemplateNotFound
	}
	return b, err
}

type S3Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads templates from an S3 compatible bucket, keyed as <prefix><name>.html.
type S3Source struct {
	client objectGetter
	bucket string
	prefix string
}

func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Source{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Source) Load(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + name + templateExt),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("mail: s3 get %s: %w", name, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Renderer compiles pongo2 templates from the first source that has them.
// Compiled templates are cached per name for the life of the process.
type Renderer struct {
	sources []Source
	set     *pongo2.TemplateSet

	mu    sync.RWMutex
	cache map[string]*pongo2.Template
}

func NewRenderer(sources ...Source) *Renderer {
	return &Renderer{
		sources: sources,
		set:     pongo2.NewSet("mail", pongo2.NewFSLoader(embedded)),
		cache:   make(map[string]*pongo2.Template),
	}
}

func (r *Renderer) Render(ctx context.Context, name string, data map[string]any) (string, error) {
	tpl, err := r.template(ctx, name)
	if err != nil {
		return "", err
	}
	out, err := tpl.Execute(pongo2.Context(data))
	if err != nil {
		return "", fmt.Errorf("mail: render %s: %w", name, err)
	}
	return out, nil
}

func (r *Renderer) template(ctx context.Context, name string) (*pongo2.Template, error) {
	r.mu.RLock()
	tpl, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	raw, err := r.load(ctx, name)
	if err != nil {
		return nil, err
	}
	tpl, err = r.set.FromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("mail: compile %s: %w", name, err)
	}

	r.mu.Lock()
	r.cache[name] = tpl
	r.mu.Unlock()
	return tpl, nil
}

func (r *Renderer) load(ctx context.Context, name string) ([]byte, error) {
	for _, src := range r.sources {
		raw, err := src.Load(ctx, name)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, ErrTemplateNotFound) {
			slog.Warn("mail template source failed, trying next", "template", name, "error", err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}
