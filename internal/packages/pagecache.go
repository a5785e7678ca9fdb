package packages

import (
	"context"
	"sort"
	"sync"

	"github.com/WishfulLabs/SellerBox/internal/models"
	"github.com/WishfulLabs/SellerBox/internal/normalize"
)

// FetchFunc запрашивает у удалённого API очередную порцию пакетов.
// nextToken == nil означает запрос с начала.
type FetchFunc func(ctx context.Context, limit int, nextToken *string) ([]models.RawPackage, *string, error)

// PageResult — одна страница пакетов с пагинационными метаданными.
type PageResult struct {
	Items           []models.Package `json:"items"`
	Page            int              `json:"page"`
	PageSize        int              `json:"pageSize"`
	TotalPages      int              `json:"totalPages"`
	HasNextPage     bool             `json:"hasNextPage"`
	HasPreviousPage bool             `json:"hasPreviousPage"`
}

// PageCache накапливает пакеты одного пользователя по мере листания.
// Удалённый API отдаёт только курсорную пагинацию с непредсказуемым
// размером порций, поэтому страницы нарезаются локально из аккумулятора.
type PageCache struct {
	fetch FetchFunc

	mu        sync.Mutex
	items     []models.Package
	nextToken *string
	fetched   bool
	hasMore   bool
}

func NewPageCache(fetch FetchFunc) *PageCache {
	return &PageCache{fetch: fetch}
}

// GetPage докачивает порции, пока накоплено меньше page*pageSize записей и
// источник не исчерпан, затем нарезает запрошенную страницу. Ошибка fetch
// возвращается наружу, состояние кэша при этом не меняется.
func (pc *PageCache) GetPage(ctx context.Context, page, pageSize int) (PageResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()

	// Работаем на копии состояния и коммитим только целиком успешный цикл.
	items := make([]models.Package, len(pc.items))
	copy(items, pc.items)
	token := pc.nextToken
	fetched := pc.fetched
	hasMore := pc.hasMore

	needed := page * pageSize
	for len(items) < needed && (!fetched || hasMore) {
		// Запрашиваем с запасом: порции часто приходят недобранными.
		raws, next, err := pc.fetch(ctx, 2*pageSize, token)
		if err != nil {
			return PageResult{}, err
		}
		for _, raw := range raws {
			items = append(items, normalize.Package(raw))
		}
		// Дубли и сортировка — внутри цикла: порции могут перекрываться,
		// и условие выше должно видеть фактический размер аккумулятора,
		// а не завышенный повторами счёт.
		items = dedupeByID(items)
		sortByCreateTimeDesc(items)

		// Пустая порция с тем же курсором — upstream забуксовал;
		// выходим, иначе цикл не завершится.
		stalled := len(raws) == 0 && next != nil && token != nil && *next == *token
		token = next
		fetched = true
		hasMore = next != nil && !stalled
	}

	pc.items = items
	pc.nextToken = token
	pc.fetched = fetched
	pc.hasMore = hasMore

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	pageItems := make([]models.Package, end-start)
	copy(pageItems, items[start:end])

	res := PageResult{
		Items:           pageItems,
		Page:            page,
		PageSize:        pageSize,
		HasNextPage:     hasMore || end < len(items),
		HasPreviousPage: start > 0,
	}
	if hasMore {
		// Источник не исчерпан: точного числа страниц нет, даём нижнюю
		// оценку, которая никогда не меньше уже запрошенной страницы.
		known := len(items) + 1
		if needed > known {
			known = needed
		}
		res.TotalPages = (known + pageSize - 1) / pageSize
	} else {
		res.TotalPages = (len(items) + pageSize - 1) / pageSize
	}
	return res, nil
}

// Reset сбрасывает аккумулятор; следующий GetPage начнёт листать с нуля.
func (pc *PageCache) Reset() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.items = nil
	pc.nextToken = nil
	pc.fetched = false
	pc.hasMore = false
}

// Snapshot возвращает копию всего накопленного (для статистики и поиска).
func (pc *PageCache) Snapshot() []models.Package {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	out := make([]models.Package, len(pc.items))
	copy(out, pc.items)
	return out
}

// dedupeByID оставляет первое вхождение каждого id: порции могут
// перекрываться, а ранняя копия уже могла быть показана пользователю.
func dedupeByID(items []models.Package) []models.Package {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, p := range items {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// sortByCreateTimeDesc: новые сверху, записи без createTime в конце.
// Сортировка стабильная, чтобы порядок внутри порции не дёргался.
func sortByCreateTimeDesc(items []models.Package) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].CreateTime, items[j].CreateTime
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
}
