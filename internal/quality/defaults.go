package quality

// DefaultTable returns the built-in threshold table covering the most commonly
// collected SEO signals. Deployments with a fuller attribute catalog load their
// own table via LoadTable; unknown features degrade to a neutral Fair score.
func DefaultTable() Table {
	return Table{
		// On-page.
		"title_tag_length": {
			Category: CategoryOnPage, MinGood: 30, MaxGood: 70, MinExcellent: 50, MaxExcellent: 60,
			Weight: 1.5, Description: "Title tag length in characters",
		},
		"title_keyword_present": {
			Category: CategoryOnPage, MinGood: 1, MaxGood: 1, MinExcellent: 1, MaxExcellent: 1,
			Weight: 2.0, Description: "Target keyword in title (binary)",
		},
		"title_keyword_position": {
			Category: CategoryOnPage, MinGood: 0, MaxGood: 40, MinExcellent: 0, MaxExcellent: 10,
			Weight: 1.3, Description: "Character position of keyword in title", Inverse: true,
		},
		"meta_description_length": {
			Category: CategoryOnPage, MinGood: 120, MaxGood: 160, MinExcellent: 140, MaxExcellent: 155,
			Weight: 1.2, Description: "Meta description length in characters",
		},
		"url_length": {
			Category: CategoryOnPage, MinGood: 20, MaxGood: 100, MinExcellent: 30, MaxExcellent: 75,
			Weight: 1.0, Description: "URL length in characters", Inverse: true,
		},
		"url_depth": {
			Category: CategoryOnPage, MinGood: 1, MaxGood: 3, MinExcellent: 1, MaxExcellent: 2,
			Weight: 1.1, Description: "URL directory depth", Inverse: true,
		},
		"h1_count": {
			Category: CategoryOnPage, MinGood: 1, MaxGood: 1, MinExcellent: 1, MaxExcellent: 1,
			Weight: 1.8, Description: "Number of H1 tags (should be exactly 1)",
		},
		"h2_count": {
			Category: CategoryOnPage, MinGood: 2, MaxGood: 8, MinExcellent: 3, MaxExcellent: 6,
			Weight: 1.2, Description: "Number of H2 tags",
		},
		"content_word_count": {
			Category: CategoryOnPage, MinGood: 1000, MaxGood: 5000, MinExcellent: 1800, MaxExcellent: 3000,
			Weight: 1.6, Description: "Total word count of content",
		},
		"keyword_density": {
			Category: CategoryOnPage, MinGood: 0.5, MaxGood: 2.5, MinExcellent: 1.0, MaxExcellent: 2.0,
			Weight: 1.3, Description: "Keyword density percentage",
		},
		"internal_links_count": {
			Category: CategoryOnPage, MinGood: 3, MaxGood: 20, MinExcellent: 5, MaxExcellent: 15,
			Weight: 1.2, Description: "Number of internal links",
		},
		"image_alt_ratio": {
			Category: CategoryOnPage, MinGood: 0.7, MaxGood: 1.0, MinExcellent: 0.9, MaxExcellent: 1.0,
			Weight: 1.1, Description: "Share of images with alt text",
		},

		// Technical.
		"https_enabled": {
			Category: CategoryTechnical, MinGood: 1, MaxGood: 1, MinExcellent: 1, MaxExcellent: 1,
			Weight: 1.7, Description: "HTTPS enabled (binary)",
		},
		"mobile_responsive": {
			Category: CategoryTechnical, MinGood: 1, MaxGood: 1, MinExcellent: 1, MaxExcellent: 1,
			Weight: 1.8, Description: "Mobile responsive (binary)",
		},
		"page_size_kb": {
			Category: CategoryTechnical, MinGood: 0, MaxGood: 3000, MinExcellent: 0, MaxExcellent: 1500,
			Weight: 1.1, Description: "Total page size in KB", Inverse: true,
		},
		"broken_internal_links": {
			Category: CategoryTechnical, MinGood: 0, MaxGood: 2, MinExcellent: 0, MaxExcellent: 0,
			Weight: 1.4, Description: "Broken internal link count", Inverse: true,
		},
		"time_to_first_byte": {
			Category: CategoryTechnical, MinGood: 0, MaxGood: 800, MinExcellent: 0, MaxExcellent: 200,
			Weight: 1.3, Description: "TTFB in milliseconds", Inverse: true,
		},

		// Core Web Vitals (ms thresholds per the CWV bands).
		"largest_contentful_paint": {
			Category: CategoryCoreWebVitals, MinGood: 0, MaxGood: 4000, MinExcellent: 0, MaxExcellent: 2500,
			Weight: 1.8, Description: "LCP in milliseconds", Inverse: true,
		},
		"interaction_to_next_paint": {
			Category: CategoryCoreWebVitals, MinGood: 0, MaxGood: 500, MinExcellent: 0, MaxExcellent: 200,
			Weight: 1.6, Description: "INP in milliseconds", Inverse: true,
		},
		"cumulative_layout_shift": {
			Category: CategoryCoreWebVitals, MinGood: 0, MaxGood: 0.25, MinExcellent: 0, MaxExcellent: 0.1,
			Weight: 1.6, Description: "CLS score", Inverse: true,
		},

		// Authority.
		"domain_authority": {
			Category: CategoryAuthority, MinGood: 30, MaxGood: 100, MinExcellent: 50, MaxExcellent: 100,
			Weight: 1.9, Description: "Domain authority (0-100)",
		},
		"domain_rating": {
			Category: CategoryAuthority, MinGood: 30, MaxGood: 100, MinExcellent: 50, MaxExcellent: 100,
			Weight: 1.8, Description: "Domain rating (0-100)",
		},
		"trust_flow": {
			Category: CategoryAuthority, MinGood: 20, MaxGood: 100, MinExcellent: 40, MaxExcellent: 100,
			Weight: 1.5, Description: "Trust flow (0-100)",
		},
		"total_backlinks": {
			Category: CategoryAuthority, MinGood: 50, MaxGood: 1000000, MinExcellent: 500, MaxExcellent: 1000000,
			Weight: 1.7, Description: "Total backlink count",
		},
		"referring_domains": {
			Category: CategoryAuthority, MinGood: 20, MaxGood: 100000, MinExcellent: 100, MaxExcellent: 100000,
			Weight: 1.8, Description: "Unique referring domains",
		},
		"dofollow_ratio": {
			Category: CategoryAuthority, MinGood: 0.5, MaxGood: 0.95, MinExcellent: 0.7, MaxExcellent: 0.9,
			Weight: 1.3, Description: "Share of dofollow backlinks",
		},

		// Engagement.
		"engagement_rate": {
			Category: CategoryEngagement, MinGood: 0.3, MaxGood: 1.0, MinExcellent: 0.5, MaxExcellent: 1.0,
			Weight: 1.6, Description: "Session engagement rate",
		},
		"bounce_rate": {
			Category: CategoryEngagement, MinGood: 0, MaxGood: 0.6, MinExcellent: 0, MaxExcellent: 0.4,
			Weight: 1.5, Description: "Bounce rate", Inverse: true,
		},
		"ctr_from_serp": {
			Category: CategoryEngagement, MinGood: 0.02, MaxGood: 0.5, MinExcellent: 0.05, MaxExcellent: 0.5,
			Weight: 1.8, Description: "Click-through rate from search results",
		},
		"dwell_time": {
			Category: CategoryEngagement, MinGood: 60, MaxGood: 1200, MinExcellent: 180, MaxExcellent: 900,
			Weight: 1.4, Description: "Average dwell time in seconds",
		},
		"pages_per_session": {
			Category: CategoryEngagement, MinGood: 1.5, MaxGood: 10, MinExcellent: 2.5, MaxExcellent: 8,
			Weight: 1.2, Description: "Pages viewed per session",
		},

		// Content.
		"content_readability_score": {
			Category: CategoryContent, MinGood: 40, MaxGood: 90, MinExcellent: 60, MaxExcellent: 80,
			Weight: 1.3, Description: "Readability score (0-100)",
		},
		"content_quality_score": {
			Category: CategoryContent, MinGood: 60, MaxGood: 100, MinExcellent: 80, MaxExcellent: 100,
			Weight: 1.9, Description: "Composite content quality score",
		},
		"multimedia_elements_count": {
			Category: CategoryContent, MinGood: 2, MaxGood: 20, MinExcellent: 4, MaxExcellent: 15,
			Weight: 1.3, Description: "Total multimedia elements",
		},

		// Temporal.
		"page_age_days": {
			Category: CategoryTemporal, MinGood: 30, MaxGood: 3650, MinExcellent: 180, MaxExcellent: 2000,
			Weight: 1.3, Description: "Page age in days",
		},
		"last_updated_days_ago": {
			Category: CategoryTemporal, MinGood: 0, MaxGood: 180, MinExcellent: 0, MaxExcellent: 90,
			Weight: 1.4, Description: "Days since last update", Inverse: true,
		},
		"ranking_volatility": {
			Category: CategoryTemporal, MinGood: 0, MaxGood: 5, MinExcellent: 0, MaxExcellent: 2,
			Weight: 1.2, Description: "Ranking position volatility (std dev)", Inverse: true,
		},

		// Interaction.
		"content_authority_interaction": {
			Category: CategoryInteraction, MinGood: 500, MaxGood: 100000, MinExcellent: 2000, MaxExcellent: 50000,
			Weight: 1.7, Description: "content_quality x domain_authority",
		},
		"engagement_position_interaction": {
			Category: CategoryInteraction, MinGood: 0.1, MaxGood: 1.0, MinExcellent: 0.3, MaxExcellent: 0.9,
			Weight: 1.6, Description: "engagement_rate x inverse position",
		},

		// Composite.
		"authority_score": {
			Category: CategoryComposite, MinGood: 30, MaxGood: 100, MinExcellent: 50, MaxExcellent: 100,
			Weight: 1.9, Description: "Average of DA, DR, and trust flow",
		},
		"technical_health_score": {
			Category: CategoryComposite, MinGood: 0.7, MaxGood: 1.0, MinExcellent: 0.9, MaxExcellent: 1.0,
			Weight: 1.8, Description: "Composite technical health score",
		},
		"eeat_score": {
			Category: CategoryComposite, MinGood: 0.6, MaxGood: 1.0, MinExcellent: 0.8, MaxExcellent: 1.0,
			Weight: 2.0, Description: "E-E-A-T composite score",
		},
		"overall_seo_score": {
			Category: CategoryComposite, MinGood: 60, MaxGood: 100, MinExcellent: 80, MaxExcellent: 100,
			Weight: 2.0, Description: "Overall weighted SEO score",
		},
	}
}
