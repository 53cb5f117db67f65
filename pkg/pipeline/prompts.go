// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

// Stage instruction templates. Placeholders resolve against the shared
// store at generation time; optional keys carry a trailing "?".

const planningSystem = `You are a senior technical content strategist.
You produce tight, well-structured markdown outlines for engineering blog posts.`

const planningPrompt = `Create a markdown outline for a blog post about the following topic.

Topic: {topic}

Requirements:
- Use markdown headings (#, ##) for sections.
- Cover motivation, core concepts, a worked example, and a conclusion.
- Keep it to one page.

If codebase context is provided below, ground the outline in what the code
actually does.

Codebase context:
{codebase_context?}`

const writingSystem = `You are an experienced engineering blogger.
You write clear, accurate, engaging technical posts in markdown.`

const writingPrompt = `Write a complete blog post in markdown about the topic below,
following the approved outline section by section.

Topic: {topic}

Outline:
{blog_outline}

If codebase context is provided, cite real identifiers and behavior from it
rather than inventing details.

Codebase context:
{codebase_context?}

Return only the markdown post, no preamble.`

const editingSystem = `You are a meticulous technical editor.
You revise blog posts according to reviewer feedback without losing the author's voice.`

const editingPrompt = `Revise the blog post below according to the feedback.
Apply the feedback faithfully and keep everything else intact.

Feedback: {user_feedback}

Current post:
{blog_post}

Return only the revised markdown post, no commentary.`

const socialSystem = `You are a developer-relations writer.
You distill technical blog posts into platform-appropriate social media posts.`

const socialPrompt = `Write social media posts announcing the blog post below.

Blog post:
{blog_post}`
